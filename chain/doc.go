// Package chain implements linear multi-step pipelines: a fixed sequence
// of agents where each step transforms the previous step's output. The
// canonical example is the content pipeline writer → editor → publisher.
//
// Unlike the router's failure isolation, a chain stops at the first failed
// step: later steps depend on the failed output, so running them would
// only compound the error. The partial step results up to the failure are
// preserved in the PipelineResult.
//
// Pipelines emit pipeline_started, step_started, step_completed and
// message_passed events so observers can watch content move through the
// chain.
package chain
