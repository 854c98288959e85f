package protocol

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	sdkerrors "github.com/codegen-sh/claude-code-sdk-go/internal/errors"
)

// pipeTransport feeds records pushed by the test to the controller and
// records every frame the controller sends.
type pipeTransport struct {
	inbound chan map[string]any
	sent    chan map[string]any
	readErr error

	mu        sync.Mutex
	sendCalls int
}

var _ config.Transport = (*pipeTransport)(nil)

func newPipeTransport() *pipeTransport {
	return &pipeTransport{
		inbound: make(chan map[string]any, 16),
		sent:    make(chan map[string]any, 16),
	}
}

func (p *pipeTransport) Configure(string, *config.Options) error       { return nil }
func (p *pipeTransport) Connect(context.Context, config.Identity) error { return nil }
func (p *pipeTransport) Disconnect() error                              { return nil }
func (p *pipeTransport) IsConnected() bool                              { return true }

func (p *pipeTransport) SendRequest(_ context.Context, messages []map[string]any, _ map[string]any) error {
	p.mu.Lock()
	p.sendCalls++
	p.mu.Unlock()

	for _, m := range messages {
		p.sent <- m
	}

	return nil
}

func (p *pipeTransport) ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for {
			select {
			case record, ok := <-p.inbound:
				if !ok {
					if p.readErr != nil {
						yield(nil, p.readErr)
					}

					return
				}

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

func (p *pipeTransport) next(t *testing.T) map[string]any {
	t.Helper()

	select {
	case frame := <-p.sent:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame sent")

		return nil
	}
}

func startController(t *testing.T, transport *pipeTransport) *Controller {
	t.Helper()

	c := NewController(slog.New(slog.DiscardHandler), transport)
	c.Start(t.Context())
	t.Cleanup(c.Stop)

	return c
}

func successFor(frame map[string]any, payload map[string]any) map[string]any {
	return successFrame(frame["request_id"].(string), payload)
}

func TestController_RequestResponse(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)

	type reply struct {
		payload map[string]any
		err     error
	}

	done := make(chan reply, 1)

	go func() {
		payload, err := c.Request(t.Context(), "interrupt", map[string]any{"why": "test"}, time.Second)
		done <- reply{payload, err}
	}()

	frame := transport.next(t)
	require.Equal(t, TypeControlRequest, frame["type"])
	require.NotEmpty(t, frame["request_id"])
	require.Equal(t, map[string]any{"subtype": "interrupt", "why": "test"}, frame["request"])

	transport.inbound <- successFor(frame, map[string]any{"ok": true})

	got := <-done
	require.NoError(t, got.err)
	require.Equal(t, map[string]any{"ok": true}, got.payload)
}

func TestController_RequestErrorResponse(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)

	done := make(chan error, 1)

	go func() {
		_, err := c.Request(t.Context(), "set_model", nil, time.Second)
		done <- err
	}()

	frame := transport.next(t)
	transport.inbound <- errorFrame(frame["request_id"].(string), "no such model")

	err := <-done

	reqErr, ok := errors.AsType[*RequestError](err)
	require.True(t, ok)
	require.Equal(t, "set_model", reqErr.Subtype)
	require.Equal(t, "no such model", reqErr.Message)
}

func TestController_RequestTimeout(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)

	_, err := c.Request(t.Context(), "interrupt", nil, 20*time.Millisecond)
	require.ErrorIs(t, err, sdkerrors.ErrRequestTimeout)

	c.mu.Lock()
	require.Empty(t, c.pending)
	c.mu.Unlock()
}

func TestController_RequestAfterStop(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)
	c.Stop()

	_, err := c.Request(context.Background(), "interrupt", nil, time.Second)
	require.ErrorIs(t, err, sdkerrors.ErrControllerStopped)

	transport.mu.Lock()
	require.Zero(t, transport.sendCalls)
	transport.mu.Unlock()
}

func TestController_TransportFailureFailsPendingRequest(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	transport.readErr = errors.New("pipe broke")
	c := startController(t, transport)

	done := make(chan error, 1)

	go func() {
		_, err := c.Request(t.Context(), "interrupt", nil, 5*time.Second)
		done <- err
	}()

	transport.next(t)
	close(transport.inbound)

	err := <-done
	require.ErrorContains(t, err, "pipe broke")
	require.EqualError(t, c.FatalError(), "pipe broke")

	_, open := <-c.Messages()
	require.False(t, open)
}

func TestController_ForwardsConversationRecordsInOrder(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)

	transport.inbound <- map[string]any{"type": "system", "subtype": "init"}
	transport.inbound <- successFrame("stale", nil)
	transport.inbound <- map[string]any{"type": "assistant"}
	transport.inbound <- map[string]any{"type": "result"}
	close(transport.inbound)

	var types []any
	for record := range c.Messages() {
		types = append(types, record["type"])
	}

	require.Equal(t, []any{"system", "assistant", "result"}, types)
	require.NoError(t, c.FatalError())

	select {
	case <-c.Done():
	default:
		t.Fatal("done should be closed after the stream ends")
	}
}

func TestController_HandlesInboundRequests(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := NewController(slog.New(slog.DiscardHandler), transport)
	c.Handle("echo", func(_ context.Context, req *Request) (map[string]any, error) {
		return map[string]any{"value": req.Body["value"]}, nil
	})
	c.Handle("fail", func(context.Context, *Request) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	c.Start(t.Context())
	t.Cleanup(c.Stop)

	transport.inbound <- map[string]any{
		"type":       TypeControlRequest,
		"request_id": "r1",
		"request":    map[string]any{"subtype": "echo", "value": "hi"},
	}

	frame := transport.next(t)
	require.Equal(t, successFrame("r1", map[string]any{"value": "hi"}), frame)

	transport.inbound <- map[string]any{
		"type":       TypeControlRequest,
		"request_id": "r2",
		"request":    map[string]any{"subtype": "fail"},
	}

	require.Equal(t, errorFrame("r2", "boom"), transport.next(t))

	transport.inbound <- map[string]any{
		"type":       TypeControlRequest,
		"request_id": "r3",
		"request":    map[string]any{"subtype": "hook_callback"},
	}

	require.Equal(t, errorFrame("r3", `unsupported control request subtype "hook_callback"`), transport.next(t))
}

func TestController_CancelRequestStopsHandler(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := NewController(slog.New(slog.DiscardHandler), transport)

	started := make(chan struct{})
	cancelled := make(chan struct{})

	c.Handle("slow", func(ctx context.Context, _ *Request) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)

		return nil, ctx.Err()
	})
	c.Start(t.Context())
	t.Cleanup(c.Stop)

	transport.inbound <- map[string]any{
		"type":       TypeControlRequest,
		"request_id": "slow-1",
		"request":    map[string]any{"subtype": "slow"},
	}

	<-started

	transport.inbound <- map[string]any{"type": TypeControlCancelRequest, "request_id": "slow-1"}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not cancelled")
	}

	select {
	case frame := <-transport.sent:
		t.Fatalf("cancelled request must not be answered, got %v", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	c := NewController(slog.New(slog.DiscardHandler), newPipeTransport())
	c.Stop()
	c.Start(context.Background())
	c.Stop()

	select {
	case <-c.Done():
	default:
		t.Fatal("done should be closed")
	}
}

func TestController_SetFatalErrorKeepsFirst(t *testing.T) {
	t.Parallel()

	c := startController(t, newPipeTransport())

	c.SetFatalError(errors.New("first"))
	c.SetFatalError(errors.New("second"))

	require.EqualError(t, c.FatalError(), "first")
}

func TestController_WriteForwardsRecords(t *testing.T) {
	t.Parallel()

	transport := newPipeTransport()
	c := startController(t, transport)

	turn := map[string]any{"type": "user", "session_id": "default"}
	require.NoError(t, c.Write(t.Context(), []map[string]any{turn}, map[string]any{"model": "m"}))
	require.Equal(t, turn, transport.next(t))
}
