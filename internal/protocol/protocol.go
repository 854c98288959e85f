package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
)

// messageBufferSize bounds how far the read loop may run ahead of the
// consumer of Messages.
const messageBufferSize = 100

// Controller multiplexes a connected transport into control traffic and
// conversation messages.
type Controller struct {
	log       *slog.Logger
	transport config.Transport

	cancel context.CancelFunc
	wg     sync.WaitGroup

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan response
	inFlight map[string]context.CancelFunc
	handlers map[string]Handler

	messages  chan map[string]any
	done      chan struct{}
	startOnce sync.Once
	doneOnce  sync.Once

	errMu    sync.RWMutex
	fatalErr error
}

// NewController creates a controller over a connected transport.
func NewController(log *slog.Logger, transport config.Transport) *Controller {
	return &Controller{
		log:       log.With("component", "protocol"),
		transport: transport,
		pending:   make(map[string]chan response),
		inFlight:  make(map[string]context.CancelFunc),
		handlers:  make(map[string]Handler),
		messages:  make(chan map[string]any, messageBufferSize),
		done:      make(chan struct{}),
	}
}

// Handle registers the handler for inbound requests of the given subtype,
// replacing any previous one. Register handlers before Start.
func (c *Controller) Handle(subtype string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[subtype] = handler
}

// Start launches the read loop. Later calls are no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel

		c.wg.Go(func() { c.readLoop(loopCtx) })

		c.log.Info("Protocol controller started")
	})
}

// Stop ends the read loop, cancels in-flight handlers and waits for them.
// It is safe to call more than once, and before Start.
func (c *Controller) Stop() {
	c.closeDone()

	c.startOnce.Do(func() {})

	if c.cancel != nil {
		c.cancel()
	}

	c.cancelInFlight()
	c.wg.Wait()

	c.log.Debug("Protocol controller stopped")
}

// Messages returns the conversation records, in arrival order. The channel
// is closed when the read loop ends; FatalError then reports why, if the
// transport failed.
func (c *Controller) Messages() <-chan map[string]any {
	return c.messages
}

// Done is closed once the controller stops or the transport ends.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// FatalError returns the transport error that ended the read loop, if any.
func (c *Controller) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// SetFatalError records err, keeping the first one, and stops the controller.
func (c *Controller) SetFatalError(err error) {
	c.errMu.Lock()
	if c.fatalErr == nil {
		c.fatalErr = err
	}
	c.errMu.Unlock()

	c.closeDone()
}

func (c *Controller) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Request sends a control request and waits for the matching response
// payload. It fails with ErrRequestTimeout after timeout, with the transport
// error if the read loop dies first, and with ErrControllerStopped after Stop.
func (c *Controller) Request(
	ctx context.Context,
	subtype string,
	payload map[string]any,
	timeout time.Duration,
) (map[string]any, error) {
	select {
	case <-c.done:
		return nil, c.stoppedError(subtype)
	default:
	}

	id := ulid.Make().String()
	replies := make(chan response, 1)

	c.mu.Lock()
	c.pending[id] = replies
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.log.Debug("Sending control request", "request_id", id, "subtype", subtype)

	if err := c.send(ctx, requestFrame(id, subtype, payload)); err != nil {
		return nil, fmt.Errorf("send %s request: %w", subtype, err)
	}

	select {
	case resp := <-replies:
		if resp.failed {
			c.log.Warn("Control request failed", "request_id", id, "subtype", subtype, "error", resp.message)

			return nil, &RequestError{Subtype: subtype, Message: resp.message}
		}

		return resp.payload, nil
	case <-c.done:
		return nil, c.stoppedError(subtype)
	case <-time.After(timeout):
		c.log.Warn("Control request timed out", "request_id", id, "subtype", subtype, "timeout", timeout)

		return nil, fmt.Errorf("%s request: %w after %s", subtype, errors.ErrRequestTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) stoppedError(subtype string) error {
	if err := c.FatalError(); err != nil {
		return fmt.Errorf("%s request: %w", subtype, err)
	}

	return errors.ErrControllerStopped
}

// Write sends conversation records on the shared transport. Writes from
// Write and from the control channel are serialized so frames never
// interleave.
func (c *Controller) Write(ctx context.Context, records []map[string]any, options map[string]any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.transport.SendRequest(ctx, records, options)
}

func (c *Controller) send(ctx context.Context, frame map[string]any) error {
	return c.Write(ctx, []map[string]any{frame}, nil)
}

func (c *Controller) readLoop(ctx context.Context) {
	defer close(c.messages)
	defer c.closeDone()

	for record, err := range c.transport.ReceiveMessages(ctx) {
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug("Transport read failed", "error", err)
				c.SetFatalError(err)
			}

			return
		}

		if !c.route(ctx, record) {
			return
		}
	}
}

// route dispatches one record. It reports false when the loop must stop.
func (c *Controller) route(ctx context.Context, record map[string]any) bool {
	switch record["type"] {
	case TypeControlResponse:
		c.deliver(record)
	case TypeControlRequest:
		c.dispatch(ctx, record)
	case TypeControlCancelRequest:
		c.cancelRequest(record)
	default:
		select {
		case c.messages <- record:
		case <-ctx.Done():
			return false
		}
	}

	return true
}

func (c *Controller) deliver(record map[string]any) {
	resp, ok := parseResponse(record)
	if !ok {
		c.log.Warn("Dropping malformed control response")

		return
	}

	c.mu.Lock()
	replies, ok := c.pending[resp.requestID]
	c.mu.Unlock()

	if !ok {
		c.log.Debug("Dropping control response with no waiter", "request_id", resp.requestID)

		return
	}

	select {
	case replies <- resp:
	default:
	}
}

// dispatch runs the handler for an inbound request on its own goroutine, so
// a slow handler never stalls the conversation stream.
func (c *Controller) dispatch(ctx context.Context, record map[string]any) {
	id, _ := record["request_id"].(string)
	body, _ := record["request"].(map[string]any)

	if id == "" || body == nil {
		c.log.Warn("Dropping malformed control request")

		return
	}

	req := &Request{ID: id, Body: body}
	reqCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	handler := c.handlers[req.Subtype()]
	c.inFlight[id] = cancel
	c.mu.Unlock()

	c.log.Debug("Received control request", "request_id", id, "subtype", req.Subtype())

	c.wg.Go(func() {
		defer func() {
			c.mu.Lock()
			delete(c.inFlight, id)
			c.mu.Unlock()
			cancel()
		}()

		var frame map[string]any

		if handler == nil {
			frame = errorFrame(id, fmt.Sprintf("unsupported control request subtype %q", req.Subtype()))
		} else {
			payload, err := handler(reqCtx, req)

			switch {
			case reqCtx.Err() != nil:
				c.log.Debug("Control request cancelled", "request_id", id)

				return
			case err != nil:
				frame = errorFrame(id, err.Error())
			default:
				frame = successFrame(id, payload)
			}
		}

		if err := c.send(ctx, frame); err != nil {
			c.log.Warn("Failed to send control response", "request_id", id, "error", err)
		}
	})
}

func (c *Controller) cancelRequest(record map[string]any) {
	id, _ := record["request_id"].(string)

	c.mu.Lock()
	cancel, ok := c.inFlight[id]
	c.mu.Unlock()

	if !ok {
		c.log.Debug("Cancel for unknown control request", "request_id", id)

		return
	}

	cancel()
}

func (c *Controller) cancelInFlight() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cancel := range c.inFlight {
		cancel()
	}
}
