package mcp

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ServerType represents the type of MCP server.
type ServerType string

const (
	// ServerTypeStdio launches the server as a child process speaking over stdio.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE connects to a server over Server-Sent Events.
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP connects to a server over streamable HTTP.
	ServerTypeHTTP ServerType = "http"
	// ServerTypeSDK hosts the server inside the calling process.
	ServerTypeSDK ServerType = "sdk"
)

var (
	errMissingCommand  = errors.New("command is required")
	errMissingURL      = errors.New("url is required")
	errMissingInstance = errors.New("server instance is required")
)

// ServerConfig describes one MCP server available to the session.
type ServerConfig interface {
	// GetType reports the server kind.
	GetType() ServerType
	// Validate reports whether the descriptor is complete.
	Validate() error
	// Descriptor returns the JSON-ready form sent to the peer.
	Descriptor() map[string]any
}

var (
	_ ServerConfig = (*StdioServer)(nil)
	_ ServerConfig = (*SSEServer)(nil)
	_ ServerConfig = (*HTTPServer)(nil)
	_ ServerConfig = (*SDKServerConfig)(nil)
)

// StdioServer launches an MCP server as a subprocess.
type StdioServer struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// GetType implements ServerConfig.
func (s *StdioServer) GetType() ServerType { return ServerTypeStdio }

// Validate implements ServerConfig.
func (s *StdioServer) Validate() error {
	if s.Command == "" {
		return fmt.Errorf("stdio server: %w", errMissingCommand)
	}

	return nil
}

// Descriptor implements ServerConfig.
func (s *StdioServer) Descriptor() map[string]any {
	d := map[string]any{
		"type":    string(ServerTypeStdio),
		"command": s.Command,
	}

	if len(s.Args) > 0 {
		d["args"] = slices.Clone(s.Args)
	}

	if len(s.Env) > 0 {
		d["env"] = maps.Clone(s.Env)
	}

	return d
}

// SSEServer connects to a remote MCP server over Server-Sent Events.
type SSEServer struct {
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// GetType implements ServerConfig.
func (s *SSEServer) GetType() ServerType { return ServerTypeSSE }

// Validate implements ServerConfig.
func (s *SSEServer) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("sse server: %w", errMissingURL)
	}

	return nil
}

// Descriptor implements ServerConfig.
func (s *SSEServer) Descriptor() map[string]any {
	return remoteDescriptor(ServerTypeSSE, s.URL, s.Headers)
}

// HTTPServer connects to a remote MCP server over HTTP.
type HTTPServer struct {
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// GetType implements ServerConfig.
func (s *HTTPServer) GetType() ServerType { return ServerTypeHTTP }

// Validate implements ServerConfig.
func (s *HTTPServer) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("http server: %w", errMissingURL)
	}

	return nil
}

// Descriptor implements ServerConfig.
func (s *HTTPServer) Descriptor() map[string]any {
	return remoteDescriptor(ServerTypeHTTP, s.URL, s.Headers)
}

func remoteDescriptor(kind ServerType, url string, headers map[string]string) map[string]any {
	d := map[string]any{
		"type": string(kind),
		"url":  url,
	}

	if len(headers) > 0 {
		d["headers"] = maps.Clone(headers)
	}

	return d
}

// ServerInstance is an MCP server hosted in the calling process.
type ServerInstance interface {
	Name() string
	Version() string
	// ListTools returns metadata for all registered tools.
	ListTools() []map[string]any
	// CallTool executes a tool by name with the given input.
	CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error)
}

// SDKServerConfig registers an in-process server. Only its name crosses the
// wire; tool calls are routed back over the control protocol.
type SDKServerConfig struct {
	Name     string
	Instance ServerInstance
}

// GetType implements ServerConfig.
func (s *SDKServerConfig) GetType() ServerType { return ServerTypeSDK }

// Validate implements ServerConfig.
func (s *SDKServerConfig) Validate() error {
	if s.Instance == nil {
		return fmt.Errorf("sdk server %q: %w", s.Name, errMissingInstance)
	}

	return nil
}

// Descriptor implements ServerConfig.
func (s *SDKServerConfig) Descriptor() map[string]any {
	return map[string]any{
		"type": string(ServerTypeSDK),
		"name": s.Name,
	}
}

// Descriptors converts a server map to its JSON-ready form, keyed by name.
// Nil entries are skipped.
func Descriptors(servers map[string]ServerConfig) map[string]any {
	if len(servers) == 0 {
		return nil
	}

	out := make(map[string]any, len(servers))
	for name, server := range servers {
		if server == nil {
			continue
		}

		out[name] = server.Descriptor()
	}

	return out
}

// ValidateServers validates every descriptor, naming the first failing server.
func ValidateServers(servers map[string]ServerConfig) error {
	for _, name := range slices.Sorted(maps.Keys(servers)) {
		server := servers[name]
		if server == nil {
			return fmt.Errorf("mcp server %q: descriptor is nil", name)
		}

		if err := server.Validate(); err != nil {
			return fmt.Errorf("mcp server %q: %w", name, err)
		}
	}

	return nil
}

// SDKServers returns the in-process servers among servers, keyed by name.
func SDKServers(servers map[string]ServerConfig) map[string]ServerInstance {
	var out map[string]ServerInstance

	for name, server := range servers {
		sdk, ok := server.(*SDKServerConfig)
		if !ok || sdk.Instance == nil {
			continue
		}

		if out == nil {
			out = make(map[string]ServerInstance, len(servers))
		}

		out[name] = sdk.Instance
	}

	return out
}
