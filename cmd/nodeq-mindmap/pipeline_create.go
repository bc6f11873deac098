package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/pipeline"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
)

var pipelineCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Infer a pipeline from an input and an output sample",
	Long:  "Analyses both samples, matches output fields to input fields and stores the compiled pipeline. Prints the new config as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineCreate,
}

var pipelineUpdateCmd = &cobra.Command{
	Use:   "update <pipeline-id>",
	Short: "Re-infer a pipeline from new samples",
	Long:  "Replaces the input sample, the output sample or both, re-infers the rules and bumps the patch version. Omitted samples are kept.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineUpdate,
}

var pipelineSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Preview the field mappings create would infer",
	Long:  "Runs the same analysis as create without storing anything and prints the mapped fields plus ranked suggestions for unmapped ones.",
	Args:  cobra.NoArgs,
	RunE:  runPipelineSuggest,
}

var (
	createInput         string
	createOutput        string
	createSources       string
	createErrorHandling string
	createCheckpoint    int
	createSequential    bool

	updateInput  string
	updateOutput string

	suggestInput  string
	suggestOutput string
	suggestJSON   bool
)

func init() {
	pipelineCreateCmd.Flags().StringVarP(&createInput, "input", "i", "", "Path to the input sample JSON file (required)")
	pipelineCreateCmd.Flags().StringVarP(&createOutput, "output", "o", "", "Path to the output sample JSON file (required)")
	pipelineCreateCmd.Flags().StringVar(&createSources, "sources", "", "Path to a JSON array of data source configs")
	pipelineCreateCmd.Flags().StringVar(&createErrorHandling, "error-handling", "", "Per-field error policy: log, skip or stop")
	pipelineCreateCmd.Flags().IntVar(&createCheckpoint, "checkpoint-interval", 0, "Records between ETL checkpoints")
	pipelineCreateCmd.Flags().BoolVar(&createSequential, "sequential", false, "Disable parallel processing in the ETL settings")

	if err := pipelineCreateCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	if err := pipelineCreateCmd.MarkFlagRequired("output"); err != nil {
		panic(fmt.Sprintf("failed to mark output flag as required: %v", err))
	}

	pipelineUpdateCmd.Flags().StringVarP(&updateInput, "input", "i", "", "Path to a new input sample JSON file")
	pipelineUpdateCmd.Flags().StringVarP(&updateOutput, "output", "o", "", "Path to a new output sample JSON file")
	pipelineUpdateCmd.MarkFlagsOneRequired("input", "output")

	pipelineSuggestCmd.Flags().StringVarP(&suggestInput, "input", "i", "", "Path to the input sample JSON file (required)")
	pipelineSuggestCmd.Flags().StringVarP(&suggestOutput, "output", "o", "", "Path to the output sample JSON file (required)")
	pipelineSuggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print the report as JSON")

	if err := pipelineSuggestCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	if err := pipelineSuggestCmd.MarkFlagRequired("output"); err != nil {
		panic(fmt.Sprintf("failed to mark output flag as required: %v", err))
	}

	pipelineCmd.AddCommand(pipelineCreateCmd, pipelineUpdateCmd, pipelineSuggestCmd)
}

func runPipelineCreate(cmd *cobra.Command, args []string) error {
	name, _ := common.First(args)

	in, err := readSample(createInput)
	if err != nil {
		return err
	}

	out, err := readSample(createOutput)
	if err != nil {
		return err
	}

	opts := pipeline.CreateOptions{
		ErrorHandling:      mapping.ErrorPolicy(createErrorHandling),
		CheckpointInterval: createCheckpoint,
	}

	if createSequential {
		parallel := false
		opts.ParallelProcessing = &parallel
	}

	if createSources != "" {
		if opts.DataSources, err = readSources(createSources); err != nil {
			return err
		}
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfg, err := a.store.Create(cmd.Context(), name, in, out, opts)
	if err != nil {
		return fmt.Errorf("failed to create pipeline %s: %w", name, err)
	}

	return writeJSON(cmd.OutOrStdout(), &cfg)
}

func runPipelineUpdate(cmd *cobra.Command, args []string) error {
	id, _ := common.First(args)

	var in, out *mapping.DataSample

	if updateInput != "" {
		s, err := readSample(updateInput)
		if err != nil {
			return err
		}

		in = &s
	}

	if updateOutput != "" {
		s, err := readSample(updateOutput)
		if err != nil {
			return err
		}

		out = &s
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfg, err := a.store.Update(cmd.Context(), id, in, out)
	if err != nil {
		return fmt.Errorf("failed to update pipeline %s: %w", id, err)
	}

	return writeJSON(cmd.OutOrStdout(), &cfg)
}

func runPipelineSuggest(cmd *cobra.Command, _ []string) error {
	in, err := readSample(suggestInput)
	if err != nil {
		return err
	}

	out, err := readSample(suggestOutput)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.store.Preview(cmd.Context(), in, out)
	if err != nil {
		return err
	}

	if suggestJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), plan.FormatReport(report))

	return err
}
