package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerConfig_Types(t *testing.T) {
	require.Equal(t, ServerTypeStdio, (&StdioServer{}).GetType())
	require.Equal(t, ServerTypeSSE, (&SSEServer{}).GetType())
	require.Equal(t, ServerTypeHTTP, (&HTTPServer{}).GetType())
	require.Equal(t, ServerTypeSDK, (&SDKServerConfig{}).GetType())
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		server  ServerConfig
		wantErr string
	}{
		{name: "stdio ok", server: &StdioServer{Command: "mcp-fs"}},
		{name: "stdio missing command", server: &StdioServer{}, wantErr: "command is required"},
		{name: "sse ok", server: &SSEServer{URL: "https://example.com/sse"}},
		{name: "sse missing url", server: &SSEServer{}, wantErr: "url is required"},
		{name: "http missing url", server: &HTTPServer{}, wantErr: "url is required"},
		{name: "sdk ok", server: &SDKServerConfig{Name: "calc", Instance: NewSDKServer("calc", "1.0.0")}},
		{name: "sdk missing instance", server: &SDKServerConfig{Name: "calc"}, wantErr: "server instance is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.server.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDescriptors(t *testing.T) {
	servers := map[string]ServerConfig{
		"fs": &StdioServer{
			Command: "mcp-fs",
			Args:    []string{"--root", "/tmp"},
			Env:     map[string]string{"DEBUG": "1"},
		},
		"remote": &HTTPServer{
			URL:     "https://example.com/mcp",
			Headers: map[string]string{"Authorization": "Bearer x"},
		},
		"events": &SSEServer{URL: "https://example.com/sse"},
		"calc":   &SDKServerConfig{Name: "calc", Instance: NewSDKServer("calc", "1.0.0")},
	}

	require.Equal(t, map[string]any{
		"fs": map[string]any{
			"type":    "stdio",
			"command": "mcp-fs",
			"args":    []string{"--root", "/tmp"},
			"env":     map[string]string{"DEBUG": "1"},
		},
		"remote": map[string]any{
			"type":    "http",
			"url":     "https://example.com/mcp",
			"headers": map[string]string{"Authorization": "Bearer x"},
		},
		"events": map[string]any{
			"type": "sse",
			"url":  "https://example.com/sse",
		},
		"calc": map[string]any{
			"type": "sdk",
			"name": "calc",
		},
	}, Descriptors(servers))

	require.Nil(t, Descriptors(nil))
}

func TestValidateServers_NamesFailingServer(t *testing.T) {
	err := ValidateServers(map[string]ServerConfig{
		"good": &StdioServer{Command: "ok"},
		"bad":  &SSEServer{},
	})

	require.ErrorContains(t, err, `mcp server "bad"`)
	require.ErrorIs(t, err, errMissingURL)

	err = ValidateServers(map[string]ServerConfig{"nil": nil})
	require.ErrorContains(t, err, "descriptor is nil")
}

func TestSDKServers(t *testing.T) {
	calc := NewSDKServer("calc", "1.0.0")

	got := SDKServers(map[string]ServerConfig{
		"fs":   &StdioServer{Command: "mcp-fs"},
		"calc": &SDKServerConfig{Name: "calc", Instance: calc},
	})

	require.Len(t, got, 1)
	require.Same(t, calc, got["calc"])

	instance, err := got["calc"].CallTool(context.Background(), "missing", nil)
	require.NoError(t, err)
	require.Equal(t, true, instance["is_error"])

	require.Nil(t, SDKServers(map[string]ServerConfig{"fs": &StdioServer{Command: "x"}}))
}
