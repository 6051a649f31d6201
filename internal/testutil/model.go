package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/model"
)

// ScriptedModel returns canned completions matched by substring of the
// request input, falling back to a default text. Unlike model.MockModel it
// does not require exact input matches, which suits analyzer and
// synthesizer prompts that embed dynamic content.
type ScriptedModel struct {
	mu       sync.Mutex
	rules    []scriptRule
	fallback string
	err      error
	usage    core.TokenUsage
	calls    []model.Request
}

type scriptRule struct {
	substring string
	response  string
	err       error
}

// NewScriptedModel constructs a model whose unmatched requests yield
// fallback.
func NewScriptedModel(fallback string) *ScriptedModel {
	return &ScriptedModel{fallback: fallback, usage: core.TokenUsage{InputTokens: 5, OutputTokens: 7}}
}

// Respond registers a response for requests whose input contains substring.
// Rules match in registration order.
func (s *ScriptedModel) Respond(substring, response string) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, scriptRule{substring: substring, response: response})
	return s
}

// FailOn registers an error for requests whose input contains substring.
func (s *ScriptedModel) FailOn(substring string, err error) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, scriptRule{substring: substring, err: err})
	return s
}

// FailAll makes every completion fail with err.
func (s *ScriptedModel) FailAll(err error) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// Complete implements model.Model.
func (s *ScriptedModel) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)

	if s.err != nil {
		return nil, s.err
	}
	for _, rule := range s.rules {
		if strings.Contains(req.Input, rule.substring) {
			if rule.err != nil {
				return nil, rule.err
			}
			return &model.Response{Text: rule.response, Model: "scripted", Usage: s.usage}, nil
		}
	}
	return &model.Response{Text: s.fallback, Model: "scripted", Usage: s.usage}, nil
}

// Info implements model.Model.
func (s *ScriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test"}
}

// Calls returns every request seen so far.
func (s *ScriptedModel) Calls() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Request, len(s.calls))
	copy(out, s.calls)
	return out
}
