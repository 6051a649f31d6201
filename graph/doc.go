// Package graph derives a live node/edge visualization from the router's
// event stream and tracks task results for observers.
//
// The Visualizer is a core.EventSink: attach it alongside any other sink
// and it translates lifecycle events (analysis, discovery, execution,
// synthesis) into incremental graph_update events carrying add_node,
// update_node and add_edge actions a UI can apply without reconstructing
// state. The
// accumulated Graph per task can also be exported as Mermaid text.
//
// The Runner wraps a SmartRouter for stream-oriented callers: Stream runs
// a task in the background and hands back a per-task event channel plus a
// result channel, and completed results stay queryable by task id.
package graph
