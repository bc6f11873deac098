package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// File reads records from a local file. Files ending in .jsonl or .ndjson
// are tailed line by line. Spreadsheets (.xlsx) yield one record per row of
// the first sheet, keyed by the header row. Any other file is read whole as
// one JSON document. Whole-file formats are re-read only when they change.
type File struct {
	cfg    mapping.DataSourceConfig
	logger *slog.Logger

	mu      sync.Mutex
	offset  int64
	modTime time.Time
	size    int64
}

// NewFile creates a file-system connector.
func NewFile(cfg mapping.DataSourceConfig, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}

	return &File{cfg: cfg, logger: logger}
}

// Type returns mapping.SourceFileSystem.
func (f *File) Type() string { return mapping.SourceFileSystem }

// Connect checks that the file exists.
func (f *File) Connect(_ context.Context) error {
	if f.cfg.Connection.Path == "" {
		return errors.New("file source has no path")
	}

	if _, err := os.Stat(f.cfg.Connection.Path); err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}

	return nil
}

func (f *File) ext() string {
	return strings.ToLower(filepath.Ext(f.cfg.Connection.Path))
}

// Poll returns records added or changed since the previous poll.
func (f *File) Poll(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.ext() {
	case ".jsonl", ".ndjson":
		return f.pollLines()
	case ".xlsx":
		return f.pollWhole(f.readSpreadsheet)
	default:
		return f.pollWhole(f.readDocument)
	}
}

// pollWhole calls read when the file changed since the previous poll.
func (f *File) pollWhole(read func() ([]any, error)) ([]any, error) {
	info, err := os.Stat(f.cfg.Connection.Path)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	if info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return nil, nil
	}

	out, err := read()
	if err != nil {
		return nil, err
	}

	f.modTime, f.size = info.ModTime(), info.Size()

	return out, nil
}

func (f *File) readDocument() ([]any, error) {
	data, err := os.ReadFile(f.cfg.Connection.Path)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	doc, err := analyze.DecodeJSON(data)
	if err != nil {
		return nil, err
	}

	return records(doc, batchSize(f.cfg)), nil
}

func (f *File) readSpreadsheet() ([]any, error) {
	book, err := excelize.OpenFile(f.cfg.Connection.Path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	if len(rows) < 2 {
		return nil, nil
	}

	header, limit := rows[0], batchSize(f.cfg)

	var out []any

	for _, row := range rows[1:] {
		if limit > 0 && len(out) >= limit {
			break
		}

		record := analyze.NewObject()
		for i, key := range header {
			if key == "" {
				continue
			}

			var cell string
			if i < len(row) {
				cell = row[i]
			}

			record.Set(key, cellValue(cell))
		}

		out = append(out, record)
	}

	return out, nil
}

// cellValue types a formatted spreadsheet cell: empty is null, numerals are
// numbers, TRUE and FALSE are booleans.
func cellValue(s string) any {
	switch s {
	case "":
		return nil
	case "TRUE":
		return true
	case "FALSE":
		return false
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}

	return s
}

func (f *File) pollLines() ([]any, error) {
	file, err := os.Open(f.cfg.Connection.Path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	// Truncated or replaced: start over.
	if info.Size() < f.offset {
		f.offset = 0
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek source file: %w", err)
	}

	limit := batchSize(f.cfg)
	reader := bufio.NewReader(file)

	var out []any

	for limit <= 0 || len(out) < limit {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] != '\n' {
			// Incomplete last line; read it on a later poll.
			break
		}

		if len(line) > 0 {
			f.offset += int64(len(line))

			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				doc, derr := analyze.DecodeJSON(trimmed)
				if derr != nil {
					f.logger.Warn("source.file.bad_line", "path", f.cfg.Connection.Path, "error", derr)
				} else {
					out = append(out, doc)
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return out, fmt.Errorf("read source file: %w", err)
		}
	}

	return out, nil
}

// Close is a no-op; the file is opened per poll.
func (f *File) Close() error { return nil }
