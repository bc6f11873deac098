package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Manage transformation pipelines",
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pipelines",
	Args:  cobra.NoArgs,
	RunE:  runPipelineList,
}

var pipelineShowCmd = &cobra.Command{
	Use:   "show <pipeline-id>",
	Short: "Print a pipeline config, its rules or its stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineShow,
}

var pipelineRemoveCmd = &cobra.Command{
	Use:   "remove <pipeline-id>",
	Short: "Delete a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineRemove,
}

var (
	showRules bool
	showStats bool
)

func init() {
	pipelineShowCmd.Flags().BoolVar(&showRules, "rules", false, "Print only the rules as a YAML review document")
	pipelineShowCmd.Flags().BoolVar(&showStats, "stats", false, "Print rule scores and execution metrics")
	pipelineShowCmd.MarkFlagsMutuallyExclusive("rules", "stats")

	pipelineCmd.AddCommand(pipelineListCmd, pipelineShowCmd, pipelineRemoveCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func runPipelineList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tRULES\tACCURACY")

	for _, cfg := range a.store.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n",
			cfg.ID, cfg.Name, cfg.Version, len(cfg.TransformationRules), cfg.Accuracy)
	}

	return tw.Flush()
}

func runPipelineShow(cmd *cobra.Command, args []string) error {
	id, _ := common.First(args)

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if showStats {
		stats, err := a.store.Stats(id)
		if err != nil {
			return err
		}

		return writeJSON(cmd.OutOrStdout(), stats)
	}

	cfg, err := a.store.GetStrict(id)
	if err != nil {
		return err
	}

	if showRules {
		out, err := mapping.MarshalRulesYAML(&cfg)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(out)

		return err
	}

	out, err := mapping.Marshal(&cfg)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return err
}

func runPipelineRemove(cmd *cobra.Command, args []string) error {
	id, _ := common.First(args)

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Remove(cmd.Context(), id); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)

	return err
}
