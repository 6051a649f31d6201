// Package testutil contains helper agents, models and sinks used across
// tests to reduce boilerplate when exercising routing, pipelines and event
// streams. These helpers are intentionally minimal and are not intended
// for production usage.
package testutil
