package mindmap

import (
	"fmt"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// Facet topics of a pipeline tree.
const (
	TopicSources      = "Data Sources"
	TopicInputSchema  = "Input Schema"
	TopicRules        = "Transformation Rules"
	TopicOutputSchema = "Output Schema"
)

// FromPipeline renders a pipeline config as a tree with one child per facet:
// sources, input schema, rules and output schema.
func FromPipeline(cfg mapping.PipelineConfig) Node {
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}

	root := Node{
		Topic:   name,
		Summary: fmt.Sprintf("version %s, accuracy %.0f%%", cfg.Version, cfg.Accuracy*100),
		Skills:  []string{cfg.ModelConfig.Type},
	}

	if cfg.ETLConfig != nil {
		root.Skills = append(root.Skills, "errors: "+string(cfg.ETLConfig.ErrorHandling.OrDefault()))
	}

	root.Children = []Node{
		sourcesNode(cfg.DataSources),
		schemaNode(TopicInputSchema, cfg.InputSample),
		rulesNode(cfg.TransformationRules),
		schemaNode(TopicOutputSchema, cfg.OutputSample),
	}

	return root
}

func sourcesNode(sources []mapping.DataSourceConfig) Node {
	n := Node{Topic: TopicSources}

	if common.IsEmpty(sources) {
		n.Summary = "samples only"
		return n
	}

	n.Summary = plural(len(sources), "source")

	for _, src := range sources {
		n.Children = append(n.Children, Node{
			Topic:   src.Type,
			Summary: sourceLocation(src.Connection),
		})
	}

	return n
}

func sourceLocation(c mapping.SourceConnection) string {
	switch {
	case c.APIEndpoint != "":
		return c.APIEndpoint
	case c.Path != "":
		return c.Path
	case c.Topic != "":
		return c.Host + "/" + c.Topic
	case c.Host != "":
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	case c.ConnectionString != "":
		return "database"
	default:
		return common.UnknownStr
	}
}

func schemaNode(topic string, sample mapping.DataSample) Node {
	leaves := analyze.ExtractFields(sample.Data)

	n := Node{Topic: topic, Summary: plural(len(leaves), "field")}

	if sample.Metadata != nil && sample.Metadata.IsTimeSeries {
		n.Skills = []string{"time series: " + sample.Metadata.TimeField}
	}

	for _, leaf := range leaves {
		path := leaf.Path
		if path == "" {
			path = "(root)"
		}

		n.Children = append(n.Children, Node{Topic: path, Skills: []string{leaf.Kind.String()}})
	}

	return n
}

func rulesNode(rules []mapping.TransformationRule) Node {
	n := Node{Topic: TopicRules, Summary: plural(len(rules), "rule")}

	for _, r := range rules {
		n.Children = append(n.Children, Node{
			Topic:   r.Describe(),
			Summary: r.Logic,
			Skills:  []string{string(r.Type), fmt.Sprintf("confidence %.0f%%", r.Confidence*100)},
		})
	}

	return n
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
