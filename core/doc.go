// Package core defines the shared vocabulary of RouteMesh: the Agent
// contract, the message/response records exchanged with agents, token
// accounting, and the typed lifecycle Event stream with its fire-and-forget
// sink abstractions.
//
// The package is intentionally leaf-like. Orchestration (router), discovery
// (registry), persistence (storage) and model providers (model) all depend
// on core; core depends only on auth for the caller identity attached to
// agent messages.
package core
