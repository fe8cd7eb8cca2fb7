// Package server implements the MCP (Model Context Protocol) server for the
// plate locator.
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
//   - plate_locate: accepted character clusters with measured and normalized
//     boxes; match_policy and min_char_num can be overridden per call
//   - plate_edge_map: the binary edge map as base64 PNG
//   - plate_outlines: traced outlines with parent IDs, optionally only those
//     that pass the character filter
//   - plate_annotate: clusters drawn onto a copy of the image, saved or
//     returned inline
//   - plate_crop: one cluster's region as base64 PNG
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process, so a
// client can call several tools on the same file without decoding it again.
// Analysis results are not cached.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the Go
// error string as data. Malformed tools/call params yield -32602, an
// unparsable request line -32700.
package server
