package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/pipeline"
)

var pipelineExecuteCmd = &cobra.Command{
	Use:   "execute <pipeline-id>",
	Short: "Run a pipeline over JSON records",
	Long:  "Transforms a JSON record, or each element of a JSON array of records, and prints the outputs.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineExecute,
}

var pipelineWatchCmd = &cobra.Command{
	Use:   "watch <pipeline-id>",
	Short: "Poll the pipeline's data sources and print transformed records",
	Long:  "Connects to every configured data source, polls each on its interval and prints one JSON line per record until interrupted.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineWatch,
}

var executeRecords string

func init() {
	pipelineExecuteCmd.Flags().StringVarP(&executeRecords, "records", "r", "-", "Path to a JSON record or array of records, - for stdin")

	pipelineCmd.AddCommand(pipelineExecuteCmd, pipelineWatchCmd)
}

func runPipelineExecute(cmd *cobra.Command, args []string) error {
	id, _ := common.First(args)

	doc, err := readDocument(executeRecords)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	batch, ok := doc.([]any)
	if !ok {
		out, err := a.store.Execute(id, doc)
		if err != nil {
			return err
		}

		return writeJSON(cmd.OutOrStdout(), out)
	}

	outputs := make([]map[string]any, 0, len(batch))

	for i, record := range batch {
		out, err := a.store.Execute(id, record)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		outputs = append(outputs, out)
	}

	return writeJSON(cmd.OutOrStdout(), outputs)
}

func runPipelineWatch(cmd *cobra.Command, args []string) error {
	id, _ := common.First(args)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var mu sync.Mutex

	out := cmd.OutOrStdout()

	err = a.store.StartRealtime(ctx, id, func(r pipeline.Result) {
		if r.Err != nil {
			a.logger.Warn("cli.record_failed", "pipeline", r.PipelineID, "source", r.Source, "error", r.Err)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		if err := writeJSON(out, r.Output); err != nil {
			a.logger.Error("cli.write_failed", "error", err)
		}
	})

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
