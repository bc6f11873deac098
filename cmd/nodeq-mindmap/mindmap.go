package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mindmap"
)

var mindmapCmd = &cobra.Command{
	Use:   "mindmap [json-file]",
	Short: "Render a JSON document or a pipeline as a mind map",
	Long:  "Builds a topic tree from a JSON document (- for stdin) or, with --pipeline, from a stored pipeline's sources, schemas and rules. Prints an indented outline or the tree as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMindmap,
}

var (
	mindmapPipeline string
	mindmapJSON     bool
	mindmapColor    bool
)

func init() {
	mindmapCmd.Flags().StringVar(&mindmapPipeline, "pipeline", "", "Render the stored pipeline with this id")
	mindmapCmd.Flags().BoolVar(&mindmapJSON, "json", false, "Print the tree as JSON instead of an outline")
	mindmapCmd.Flags().BoolVar(&mindmapColor, "color", false, "Style the outline when writing to a terminal")
	mindmapCmd.MarkFlagsMutuallyExclusive("json", "color")

	rootCmd.AddCommand(mindmapCmd)
}

func runMindmap(cmd *cobra.Command, args []string) error {
	path, hasPath := common.First(args)

	var root mindmap.Node

	switch {
	case mindmapPipeline != "" && hasPath:
		return errors.New("give either a JSON file or --pipeline, not both")
	case mindmapPipeline != "":
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.close()

		cfg, err := a.store.GetStrict(mindmapPipeline)
		if err != nil {
			return err
		}

		root = mindmap.FromPipeline(cfg)
	case hasPath:
		doc, err := readDocument(path)
		if err != nil {
			return err
		}

		root = mindmap.FromJSON(doc)
	default:
		return errors.New("a JSON file or --pipeline is required")
	}

	if mindmapJSON {
		return writeJSON(cmd.OutOrStdout(), root)
	}

	out := cmd.OutOrStdout()

	if mindmapColor {
		return mindmap.WriteStyledOutline(out, root, mindmap.NewStyles(out))
	}

	return mindmap.WriteOutline(out, root)
}
