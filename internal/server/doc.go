// Package server implements the MCP (Model Context Protocol) server that
// fronts the helmet detection workflow.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Selection:
//   - asset_select: Select a file and create its preview
//   - preview_release: Release the preview
//
// Analysis:
//   - analysis_submit: Submit the selection to the detection service
//   - analysis_status: State, metrics and compliance color
//
// Rendering:
//   - preview_render: Preview with the subject outlined
//   - preview_crop_subject: Crop of the detected subject
//
// Service:
//   - service_health: Probe the detection service
//
// # Workflow State
//
// The server holds one selection.Manager and one analysis.Orchestrator for
// its lifetime. Requests are handled sequentially; a submitted analysis runs
// in the background and is observed through analysis_status, or awaited with
// analysis_submit's wait flag. When input closes or the context is cancelled
// the in-flight analysis is abandoned and the preview released.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A failed analysis is not a tool error: it is reported as the "failed"
// state with a generic message, and the cause is logged to stderr.
package server
