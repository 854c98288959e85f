package conn

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
	"github.com/codegen-sh/claude-code-sdk-go/internal/jsonl"
)

// Frame types of the connection envelope.
const (
	FrameHello       = "hello"
	FrameRequest     = "request"
	FrameEndOfStream = "end_of_stream"
)

// DefaultMaxFrameSize is the largest inbound record accepted when
// Options.MaxBufferSize is zero.
const DefaultMaxFrameSize = 1024 * 1024

// Dialer opens the underlying connection.
type Dialer func(ctx context.Context) (net.Conn, error)

// TCPDialer dials addr over TCP.
func TCPDialer(addr string) Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer

		return d.DialContext(ctx, "tcp", addr)
	}
}

type state int

const (
	stateUnconfigured state = iota
	stateConfigured
	stateConnected
	stateClosed
)

// Transport implements config.Transport over a net.Conn.
type Transport struct {
	log  *slog.Logger
	dial Dialer

	mu      sync.Mutex
	state   state
	prompt  string
	options *config.Options
	conn    net.Conn
	scanner *jsonl.Scanner
	lines   int
	ended   bool

	writeMu sync.Mutex
}

var _ config.Transport = (*Transport)(nil)

// New creates an unconfigured transport that connects with dial.
func New(log *slog.Logger, dial Dialer) *Transport {
	return &Transport{
		log:  log.With("component", "conn_transport"),
		dial: dial,
	}
}

// Configure implements config.Transport.
func (t *Transport) Configure(prompt string, options *config.Options) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateClosed:
		return &errors.CLIConnectionError{Err: errors.ErrTransportClosed}
	case stateConfigured, stateConnected:
		return &errors.CLIConnectionError{Err: errors.ErrAlreadyConfigured}
	}

	if options == nil {
		options = &config.Options{}
	}

	t.prompt = prompt
	t.options = options
	t.state = stateConfigured

	return nil
}

// Connect implements config.Transport. It dials and sends the hello frame.
func (t *Transport) Connect(ctx context.Context, id config.Identity) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateUnconfigured:
		return &errors.CLIConnectionError{Err: errors.ErrNotConfigured}
	case stateConnected:
		return &errors.CLIConnectionError{Err: errors.ErrAlreadyConnected}
	case stateClosed:
		return &errors.CLIConnectionError{Err: errors.ErrTransportClosed}
	}

	if t.dial == nil {
		return &errors.CLIConnectionError{Err: stderrors.New("no dialer configured")}
	}

	c, err := t.dial(ctx)
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("dial: %w", err)}
	}

	hello := map[string]any{
		"type":       FrameHello,
		"entrypoint": id.Entrypoint,
		"version":    id.Version,
	}
	if t.prompt != "" {
		hello["prompt"] = t.prompt
	}

	if err := writeFrame(ctx, c, hello); err != nil {
		_ = c.Close()

		return &errors.CLIConnectionError{Err: fmt.Errorf("send hello: %w", err)}
	}

	maxFrame := t.options.MaxBufferSize
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}

	t.scanner = jsonl.NewScanner(c, maxFrame)
	t.conn = c
	t.state = stateConnected

	t.log.Info("Connected", "remote", c.RemoteAddr().String())

	return nil
}

// SendRequest implements config.Transport. The batch and the options bag
// travel together in one request frame.
func (t *Transport) SendRequest(ctx context.Context, messages []map[string]any, options map[string]any) error {
	c, err := t.connected()
	if err != nil {
		return err
	}

	if messages == nil {
		messages = []map[string]any{}
	}

	frame := map[string]any{
		"type":     FrameRequest,
		"messages": messages,
		"options":  options,
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.log.Debug("Sending request", "messages", len(messages))

	if err := writeFrame(ctx, c, frame); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return &errors.CLIConnectionError{Err: fmt.Errorf("send request: %w", err)}
	}

	return nil
}

// writeFrame writes one JSON line, aborting the write when ctx is done.
func writeFrame(ctx context.Context, c net.Conn, frame map[string]any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.SetWriteDeadline(time.Now())
	})
	defer stop()

	_, err = c.Write(append(data, '\n'))

	return err
}

// ReceiveMessages implements config.Transport.
func (t *Transport) ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		c, err := t.connected()
		if err != nil {
			yield(nil, err)

			return
		}

		if t.ended {
			return
		}

		stop := context.AfterFunc(ctx, func() {
			_ = c.SetReadDeadline(time.Now())
		})
		defer stop()

		for t.scanner.Scan() {
			line := bytes.TrimSpace(t.scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			t.lines++

			var record map[string]any
			if err := json.Unmarshal(line, &record); err != nil {
				yield(nil, errors.NewJSONDecodeError(line, t.lines, err))

				return
			}

			if record["type"] == FrameEndOfStream {
				t.log.Debug("End of stream", "records", t.lines-1)
				t.ended = true

				return
			}

			if !yield(record, nil) {
				return
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			yield(nil, ctxErr)

			return
		}

		err = t.scanner.Err()
		switch {
		case err == nil, stderrors.Is(err, net.ErrClosed), stderrors.Is(err, io.ErrClosedPipe):
			// Peer hung up or we disconnected.
		case stderrors.Is(err, bufio.ErrTooLong):
			yield(nil, errors.NewJSONDecodeError(t.scanner.Oversized(), t.lines+1,
				fmt.Errorf("frame exceeds max buffer size of %d bytes: %w", t.scanner.Limit(), err)))
		default:
			yield(nil, &errors.CLIConnectionError{Err: fmt.Errorf("read: %w", err)})
		}
	}
}

// Disconnect implements config.Transport.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	prev := t.state
	c := t.conn
	t.state = stateClosed
	t.mu.Unlock()

	if prev != stateConnected {
		return nil
	}

	t.log.Info("Disconnecting")

	if err := c.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
		return &errors.CLIConnectionError{Err: fmt.Errorf("close: %w", err)}
	}

	return nil
}

// IsConnected implements config.Transport.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state == stateConnected
}

func (t *Transport) connected() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateConnected:
		return t.conn, nil
	case stateClosed:
		return nil, &errors.CLIConnectionError{Err: errors.ErrTransportClosed}
	default:
		return nil, &errors.CLIConnectionError{Err: errors.ErrTransportNotConnected}
	}
}
