// Package agent contains the agent implementations RouteMesh ships with:
//
//  1. BaseAgent: identity, capability set and shared plumbing to embed in
//     concrete agents
//  2. LLMAgent: a model-backed agent with a system prompt, conversation
//     history and storage persistence
//  3. Deterministic agents (Echo, Counter, Calculator) for demos and tests
//  4. Specialist constructors (research, estimation, analysis, translation,
//     writing, editing, summarization) preconfigured with prompts and
//     capability tags
//
// Agents are registered with registry.Registry and driven by the router via
// core.Agent.ReceiveMessage. Permission checks happen here: every inbound
// message requires the send_messages permission of the caller.
package agent
