package mcp

import "encoding/json"

// ServerStatus is the live connection state of one MCP server.
type ServerStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Status lists the state of every configured MCP server.
type Status struct {
	MCPServers []ServerStatus `json:"mcpServers"`
}

// ParseStatus decodes an mcp_status control response payload.
func ParseStatus(payload map[string]any) (*Status, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, err
	}

	return &status, nil
}
