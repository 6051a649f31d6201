package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/model"
)

// Capability describes one entry of the analyzer's advertised catalog.
type Capability struct {
	Tag         string `json:"tag" yaml:"tag"`
	Description string `json:"description" yaml:"description"`
}

// DefaultCatalog lists the capabilities the stock analyzer advertises to
// the model. Override via WithCatalog (or config.Config.Capabilities).
var DefaultCatalog = []Capability{
	{"calculation", "math operations, calculations, formulas"},
	{"echo", "repeating messages back"},
	{"creative_writing", "creative writing: poems, stories, haiku"},
	{"text_editing", "editing, correcting and improving text"},
	{"formatting", "document formatting, markdown, structure"},
	{"research", "information lookup, knowledge questions, facts"},
	{"estimation", "estimates of costs, quantities, sizes"},
	{"analysis", "analysis of complex problems, reasoning, pros/cons"},
	{"translation", "translation between languages"},
	{"summarization", "summaries and syntheses of texts or concepts"},
}

// Analyzer turns free-form task text into required capabilities, one
// subtask per capability and an optional dependency map. Implementations
// never fail for "nothing detected": an empty capability list is a valid
// terminal outcome. Provider and parse failures degrade to an empty result
// rather than propagating.
type Analyzer interface {
	Analyze(ctx context.Context, task, taskID string) (*AnalysisResult, error)
}

// LLMAnalyzerOptions configures an LLMAnalyzer.
type LLMAnalyzerOptions struct {
	Catalog []Capability
	Logger  logging.Logger
}

// LLMAnalyzer prompts a model with the capability catalog and parses its
// JSON verdict. Output wrapped in fenced code blocks is tolerated; anything
// unparseable degrades to empty capabilities with Unparseable set so
// callers can tell malformed output from a genuinely empty verdict.
type LLMAnalyzer struct {
	model   model.Model
	catalog []Capability
	logger  logging.Logger
}

// NewLLMAnalyzer constructs an analyzer over the given model.
func NewLLMAnalyzer(m model.Model, optFns ...func(o *LLMAnalyzerOptions)) *LLMAnalyzer {
	opts := LLMAnalyzerOptions{Catalog: DefaultCatalog}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLMAnalyzer{model: m, catalog: opts.Catalog, logger: logging.OrNoOp(opts.Logger)}
}

// Catalog returns the advertised capability list.
func (a *LLMAnalyzer) Catalog() []Capability {
	catalog := make([]Capability, len(a.catalog))
	copy(catalog, a.catalog)
	return catalog
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, task, taskID string) (*AnalysisResult, error) {
	start := time.Now()
	result := &AnalysisResult{
		TaskID:       taskID,
		OriginalTask: task,
		Subtasks:     map[string]string{},
	}

	resp, err := a.model.Complete(ctx, model.Request{
		Instructions: a.systemPrompt(),
		Input:        task,
	})
	if err != nil {
		// Provider failure is non-fatal: degrade to "nothing detected".
		a.logger.Warn("analysis degraded to empty: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}

	parseAnalysis(resp.Text, result)
	result.Duration = time.Since(start)
	if result.Unparseable {
		a.logger.Warn("analyzer output unparseable for task %s", taskID)
	}
	return result, nil
}

func (a *LLMAnalyzer) systemPrompt() string {
	var catalog strings.Builder
	for _, c := range a.catalog {
		fmt.Fprintf(&catalog, "    - %s: %s\n", c.Tag, c.Description)
	}
	return fmt.Sprintf(`You are an intelligent task analyzer.

Analyze the user's request and identify:
1. Which capabilities are required to complete the task
2. How to split the task into one subtask per capability
3. Whether any subtask depends on another subtask's output

Available capabilities:
%s
IMPORTANT: Respond ONLY with valid JSON in the following format:
{
    "capabilities": ["capability1", "capability2"],
    "subtasks": {
        "capability1": "subtask description for this capability",
        "capability2": "subtask description for this capability"
    },
    "dependencies": {
        "capability2": ["capability1"]
    }
}

Omit "dependencies" when subtasks are independent. No explanations, only
the JSON.`, catalog.String())
}

// parseAnalysis fills result from the model's raw output. Fenced code
// blocks are stripped first; invalid JSON marks the result Unparseable and
// leaves capabilities empty.
func parseAnalysis(raw string, result *AnalysisResult) {
	text := stripFence(raw)
	if !gjson.Valid(text) {
		result.Unparseable = true
		result.RawOutput = raw
		return
	}
	parsed := gjson.Parse(text)
	for _, c := range parsed.Get("capabilities").Array() {
		if tag := c.String(); tag != "" {
			result.DetectedCapabilities = append(result.DetectedCapabilities, tag)
		}
	}
	parsed.Get("subtasks").ForEach(func(key, value gjson.Result) bool {
		result.Subtasks[key.String()] = value.String()
		return true
	})
	deps := parsed.Get("dependencies")
	if deps.IsObject() {
		result.Dependencies = map[string][]string{}
		deps.ForEach(func(key, value gjson.Result) bool {
			var prereqs []string
			for _, p := range value.Array() {
				if tag := p.String(); tag != "" {
					prereqs = append(prereqs, tag)
				}
			}
			result.Dependencies[key.String()] = prereqs
			return true
		})
	}
}

// stripFence unwraps the first fenced code block, with or without a
// language tag. Text without fences passes through trimmed.
func stripFence(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}
