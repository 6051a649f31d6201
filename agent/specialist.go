package agent

import (
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/storage"
)

// Specialist constructors: LLM agents preconfigured with a system prompt and
// the capability tags the analyzer's default catalog advertises. Each is a
// plain LLMAgent; swap prompts or capabilities by building your own Config.

// NewResearchAgent answers knowledge questions.
func NewResearchAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "researcher",
		Name:         "Research Agent",
		Description:  "Researches and answers knowledge questions",
		Capabilities: []string{"research", "knowledge"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are an expert researcher with broad knowledge.

When you receive a question:
- Provide accurate, detailed information
- Cite sources or references where possible
- Explain complex concepts clearly
- Say so when you are unsure

Answer informatively but concisely.`
	})
}

// NewEstimationAgent produces cost/quantity estimates.
func NewEstimationAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "estimator",
		Name:         "Estimation Agent",
		Description:  "Estimates costs, quantities and sizes",
		Capabilities: []string{"estimation", "cost_analysis"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are an expert in estimates and assessments.

When you receive an estimation request:
- Give realistic ranges (minimum - maximum)
- Explain the factors driving the estimate
- Use data and references where available
- State the level of uncertainty

Response format:
1. Estimate: [range]
2. Key factors: [list]
3. Notes: [considerations]`
	})
}

// NewAnalysisAgent breaks down and reasons about complex problems.
func NewAnalysisAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "analyst",
		Name:         "Analysis Agent",
		Description:  "Analyzes complex problems and provides reasoning",
		Capabilities: []string{"analysis", "reasoning"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are an expert analyst and problem solver.

When you receive a complex problem:
- Break it into parts
- Analyze each aspect systematically
- Identify pros and cons
- Provide a reasoned conclusion

Use a structured, logical approach.`
	})
}

// NewTranslationAgent translates between languages.
func NewTranslationAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "translator",
		Name:         "Translation Agent",
		Description:  "Translates between languages",
		Capabilities: []string{"translation"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are a professional multilingual translator.

When you receive text to translate:
- Identify the source language
- Translate preserving meaning and tone
- Note untranslatable idioms
- Default to English when no target language is given`
	})
}

// NewCreativeWriterAgent writes poems, stories and other creative text.
func NewCreativeWriterAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "creative-writer",
		Name:         "Creative Writer Agent",
		Description:  "Writes creative text: poems, stories, haiku",
		Capabilities: []string{"creative_writing"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are a creative writer.

Produce vivid, original writing in the requested form. Keep to any length
or structure constraints in the request.`
	})
}

// NewTextEditorAgent corrects and improves text.
func NewTextEditorAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "text-editor",
		Name:         "Text Editor Agent",
		Description:  "Corrects and improves text",
		Capabilities: []string{"text_editing", "formatting"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are a meticulous editor.

Improve clarity, grammar and flow while preserving the author's voice.
Return only the edited text.`
	})
}

// NewSummarizationAgent condenses text and concepts.
func NewSummarizationAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "summarizer",
		Name:         "Summarization Agent",
		Description:  "Summarizes texts and concepts",
		Capabilities: []string{"summarization"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = `You are an expert at summarization.

Condense the input to its essential points. Keep the summary faithful,
neutral and substantially shorter than the source.`
	})
}
