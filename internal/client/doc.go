// Package client implements the multi-turn session.
//
// A Client keeps one transport open in client mode. Each Query sends a user
// turn; replies are read with ReceiveMessages or ReceiveResponse. The control
// channel carries interrupts, permission mode and model changes, MCP status
// queries, and the tool calls of in-process MCP servers.
package client
