package protocol

import (
	"context"
	"fmt"
	"maps"
)

// Frame discriminators on the control channel.
const (
	TypeControlRequest       = "control_request"
	TypeControlResponse      = "control_response"
	TypeControlCancelRequest = "control_cancel_request"
)

// Request is an inbound control request.
//
//	{"type": "control_request", "request_id": "...", "request": {"subtype": "mcp_message", ...}}
type Request struct {
	ID   string
	Body map[string]any
}

// Subtype returns the request subtype, or "" when absent.
func (r *Request) Subtype() string {
	s, _ := r.Body["subtype"].(string)

	return s
}

// Handler answers an inbound control request. The returned payload is sent
// back in a success response; an error becomes an error response.
type Handler func(ctx context.Context, req *Request) (map[string]any, error)

// RequestError is a control request the peer answered with an error.
type RequestError struct {
	Subtype string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("control request %q failed: %s", e.Subtype, e.Message)
}

// response is the decoded body of a control_response frame.
//
//	{"subtype": "success", "request_id": "...", "response": {...}}
//	{"subtype": "error", "request_id": "...", "error": "..."}
type response struct {
	requestID string
	failed    bool
	message   string
	payload   map[string]any
}

func parseResponse(frame map[string]any) (response, bool) {
	body, ok := frame["response"].(map[string]any)
	if !ok {
		return response{}, false
	}

	r := response{}
	r.requestID, _ = body["request_id"].(string)
	r.payload, _ = body["response"].(map[string]any)

	if subtype, _ := body["subtype"].(string); subtype == "error" {
		r.failed = true
		r.message, _ = body["error"].(string)
	}

	return r, r.requestID != ""
}

func requestFrame(id, subtype string, payload map[string]any) map[string]any {
	body := make(map[string]any, len(payload)+1)
	maps.Copy(body, payload)
	body["subtype"] = subtype

	return map[string]any{
		"type":       TypeControlRequest,
		"request_id": id,
		"request":    body,
	}
}

func successFrame(id string, payload map[string]any) map[string]any {
	if payload == nil {
		payload = map[string]any{}
	}

	return map[string]any{
		"type": TypeControlResponse,
		"response": map[string]any{
			"subtype":    "success",
			"request_id": id,
			"response":   payload,
		},
	}
}

func errorFrame(id, message string) map[string]any {
	return map[string]any{
		"type": TypeControlResponse,
		"response": map[string]any{
			"subtype":    "error",
			"request_id": id,
			"error":      message,
		},
	}
}
