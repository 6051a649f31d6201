package chain

import (
	"github.com/routemesh/routemesh/agent"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/storage"
)

// Content pipeline steps: preconfigured LLM agents for the canonical
// writer → editor → publisher chain. NewContentPipeline wires all three.

// NewWriterAgent drafts original content from a brief.
func NewWriterAgent(m model.Model, store storage.Store) *agent.LLMAgent {
	return agent.NewLLMAgent(agent.Config{
		ID:           "writer",
		Name:         "Writer",
		Description:  "Drafts original content from a brief",
		Capabilities: []string{"creative_writing"},
	}, m, store, func(o *agent.LLMOptions) {
		o.SystemPrompt = `You are a content writer.

Turn the brief you receive into a complete first draft:
- Cover every point in the brief
- Write engaging, flowing prose
- Do not polish; a later editor refines the text

Return only the draft.`
	})
}

// NewEditorAgent refines a draft for clarity and correctness.
func NewEditorAgent(m model.Model, store storage.Store) *agent.LLMAgent {
	return agent.NewLLMAgent(agent.Config{
		ID:           "editor",
		Name:         "Editor",
		Description:  "Refines drafts for clarity and correctness",
		Capabilities: []string{"text_editing"},
	}, m, store, func(o *agent.LLMOptions) {
		o.SystemPrompt = `You are a line editor.

Improve the draft you receive:
- Fix grammar, spelling and punctuation
- Tighten wording and improve flow
- Preserve the author's meaning and voice

Return only the edited text.`
	})
}

// NewPublisherAgent formats edited text for publication.
func NewPublisherAgent(m model.Model, store storage.Store) *agent.LLMAgent {
	return agent.NewLLMAgent(agent.Config{
		ID:           "publisher",
		Name:         "Publisher",
		Description:  "Formats final text for publication",
		Capabilities: []string{"formatting"},
	}, m, store, func(o *agent.LLMOptions) {
		o.SystemPrompt = `You are a publisher preparing text for release.

Format the text you receive as publication-ready markdown:
- Add a title and section headings where appropriate
- Apply consistent emphasis and list formatting
- Do not change the wording

Return only the formatted document.`
	})
}

// NewContentPipeline builds the standard writer → editor → publisher
// pipeline over one model and store.
func NewContentPipeline(m model.Model, store storage.Store, optFns ...func(o *Options)) *Pipeline {
	return New("content", []core.Agent{
		NewWriterAgent(m, store),
		NewEditorAgent(m, store),
		NewPublisherAgent(m, store),
	}, optFns...)
}
