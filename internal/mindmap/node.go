// Package mindmap converts documents and pipeline configs into the
// hierarchical node shape consumed by mind-map renderers.
package mindmap

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Node is one mind-map node.
type Node struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Summary  string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Skills   []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Children []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Count returns the number of nodes in the tree rooted at n.
func (n Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}

	return total
}

// Find returns the first direct child with the given topic.
func (n Node) Find(topic string) (Node, bool) {
	for _, c := range n.Children {
		if c.Topic == topic {
			return c, true
		}
	}

	return Node{}, false
}

// Styles colours the parts of an outline line.
type Styles struct {
	Topic   lipgloss.Style
	Summary lipgloss.Style
	Skills  lipgloss.Style
}

// NewStyles returns styles for w's colour profile. Writers that are not a
// terminal get plain text.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)

	return Styles{
		Topic:   r.NewStyle().Bold(true),
		Summary: r.NewStyle().Foreground(lipgloss.Color("8")),
		Skills:  r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// WriteOutline writes the tree as an indented text outline.
func WriteOutline(w io.Writer, n Node) error {
	return writeOutline(w, n, 0, nil)
}

// WriteStyledOutline is WriteOutline with styled topics, summaries and skills.
func WriteStyledOutline(w io.Writer, n Node, st Styles) error {
	return writeOutline(w, n, 0, &st)
}

func writeOutline(w io.Writer, n Node, depth int, st *Styles) error {
	topic, summary := n.Topic, n.Summary
	skills := strings.Join(n.Skills, ", ")

	if st != nil {
		topic = st.Topic.Render(topic)
		summary = st.Summary.Render(summary)
		skills = st.Skills.Render(skills)
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(topic)

	if n.Summary != "" {
		sb.WriteString(": ")
		sb.WriteString(summary)
	}

	if len(n.Skills) > 0 {
		fmt.Fprintf(&sb, " [%s]", skills)
	}

	sb.WriteByte('\n')

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	for _, c := range n.Children {
		if err := writeOutline(w, c, depth+1, st); err != nil {
			return err
		}
	}

	return nil
}
