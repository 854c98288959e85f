package claudecode

import (
	"context"
	"encoding/json"
	"iter"
	"sync"

	sdkerrors "github.com/codegen-sh/claude-code-sdk-go/internal/errors"
)

// scriptedTransport replays a fixed inbound script and counts every call.
// Script entries are records (map[string]any), raw lines (string) decoded as
// JSON, or errors yielded as transport failures.
type scriptedTransport struct {
	script []any

	connectErr    error
	disconnectErr error

	mu          sync.Mutex
	prompt      string
	identity    Identity
	connected   bool
	sent        []map[string]any
	sentOptions map[string]any

	configureCalls  int
	connectCalls    int
	sendCalls       int
	receiveCalls    int
	disconnectCalls int
	releases        int
}

var _ Transport = (*scriptedTransport)(nil)

func newScriptedTransport(script ...any) *scriptedTransport {
	return &scriptedTransport{script: script}
}

func (s *scriptedTransport) Configure(prompt string, _ *ClaudeCodeOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configureCalls++
	s.prompt = prompt

	return nil
}

func (s *scriptedTransport) Connect(_ context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectCalls++

	if s.connectErr != nil {
		return s.connectErr
	}

	s.identity = id
	s.connected = true

	return nil
}

func (s *scriptedTransport) SendRequest(_ context.Context, messages []map[string]any, options map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendCalls++
	s.sent = append(s.sent, messages...)
	s.sentOptions = options

	return nil
}

func (s *scriptedTransport) ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error] {
	s.mu.Lock()
	s.receiveCalls++
	s.mu.Unlock()

	return func(yield func(map[string]any, error) bool) {
		for i, entry := range s.script {
			if err := ctx.Err(); err != nil {
				yield(nil, err)

				return
			}

			var (
				record map[string]any
				err    error
			)

			switch v := entry.(type) {
			case map[string]any:
				record = v
			case string:
				if jsonErr := json.Unmarshal([]byte(v), &record); jsonErr != nil {
					err = sdkerrors.NewJSONDecodeError([]byte(v), i+1, jsonErr)
				}
			case error:
				err = v
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(record, nil) {
				return
			}
		}
	}
}

func (s *scriptedTransport) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnectCalls++

	if s.connected {
		s.connected = false
		s.releases++
	}

	return s.disconnectErr
}

func (s *scriptedTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

// peerTransport plays the CLI in client mode. It answers control requests,
// and reply scripts the records sent back for each user turn or control
// response the SDK writes.
type peerTransport struct {
	inbound chan map[string]any

	mu           sync.Mutex
	prompt       string
	sent         []map[string]any
	responses    map[string]map[string]any
	reply        func(frame map[string]any) []map[string]any
	disconnected bool
}

var _ Transport = (*peerTransport)(nil)

func newPeerTransport() *peerTransport {
	return &peerTransport{
		inbound: make(chan map[string]any, 64),
		responses: map[string]map[string]any{
			"initialize": {"commands": []any{"/help"}},
		},
		reply: func(frame map[string]any) []map[string]any {
			if frame["type"] != "user" {
				return nil
			}

			return []map[string]any{
				assistantRecord("Hi there"),
				{"type": "result", "subtype": "success", "session_id": frame["session_id"]},
			}
		},
	}
}

func (p *peerTransport) Configure(prompt string, _ *ClaudeCodeOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompt = prompt

	return nil
}

func (p *peerTransport) Connect(context.Context, Identity) error { return nil }

func (p *peerTransport) SendRequest(_ context.Context, messages []map[string]any, _ map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sent = append(p.sent, messages...)

	for _, m := range messages {
		if m["type"] == "control_request" {
			request := m["request"].(map[string]any)
			p.inbound <- map[string]any{
				"type": "control_response",
				"response": map[string]any{
					"subtype":    "success",
					"request_id": m["request_id"],
					"response":   p.responses[request["subtype"].(string)],
				},
			}

			continue
		}

		for _, record := range p.reply(m) {
			p.inbound <- record
		}
	}

	return nil
}

func (p *peerTransport) ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for {
			select {
			case record := <-p.inbound:
				if !yield(record, nil) {
					return
				}
			case <-ctx.Done():
				yield(nil, ctx.Err())

				return
			}
		}
	}
}

func (p *peerTransport) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.disconnected = true

	return nil
}

func (p *peerTransport) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return !p.disconnected
}

func (p *peerTransport) sentFrames() []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]map[string]any(nil), p.sent...)
}

func assistantRecord(text string) map[string]any {
	return map[string]any{
		"type":    "assistant",
		"content": []any{map[string]any{"type": "text", "text": text}},
	}
}
