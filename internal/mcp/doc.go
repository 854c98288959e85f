// Package mcp describes the MCP servers a session may use and hosts
// in-process ones.
//
// External servers (stdio, SSE, HTTP) are plain descriptors forwarded to the
// peer. In-process servers are SDKServer registries whose tools the CLI calls
// back through the control protocol.
package mcp
