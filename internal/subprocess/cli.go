package subprocess

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
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codegen-sh/claude-code-sdk-go/internal/cli"
	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
	"github.com/codegen-sh/claude-code-sdk-go/internal/jsonl"
)

const (
	// DefaultMaxBufferSize is the largest stdout frame accepted when
	// Options.MaxBufferSize is zero.
	DefaultMaxBufferSize = 1024 * 1024 // 1MB

	// maxStderrBufferSize caps how much stderr is kept for ProcessError. The
	// Stderr callback still receives every line.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// exitGracePeriod bounds how long a failed stdin write waits for the
	// process to finish exiting before reporting a broken pipe.
	exitGracePeriod = 2 * time.Second
)

type state int

const (
	stateUnconfigured state = iota
	stateConfigured
	stateConnected
	stateClosed
)

// CLITransport implements config.Transport by spawning the claude CLI and
// exchanging newline-delimited JSON over its stdin and stdout.
type CLITransport struct {
	log *slog.Logger

	mu      sync.Mutex
	state   state
	prompt  string
	options *config.Options

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	scanner *jsonl.Scanner
	lines   int

	writeMu     sync.Mutex
	stdinClosed bool

	stderr     stderrBuffer
	stderrDone chan struct{}

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}

	closing atomic.Bool
}

var _ config.Transport = (*CLITransport)(nil)

// NewCLITransport creates an unconfigured transport.
func NewCLITransport(log *slog.Logger) *CLITransport {
	return &CLITransport{
		log: log.With("component", "cli_transport"),
	}
}

// Configure implements config.Transport. A non-empty prompt makes the session
// one-shot: stdin is closed after the first request so the CLI exits once the
// turn completes.
func (t *CLITransport) Configure(prompt string, options *config.Options) error {
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

// Connect implements config.Transport. It locates the CLI and starts it.
//
// Returns CLINotFoundError if the binary cannot be located, or
// CLIConnectionError if the process fails to start.
func (t *CLITransport) Connect(ctx context.Context, id config.Identity) error {
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

	t.log.Info("Starting Claude CLI subprocess")

	cliPath, err := cli.NewDiscoverer(cli.Config{
		CliPath: t.options.CliPath,
		Logger:  t.log,
	}).Discover(ctx)
	if err != nil {
		return err
	}

	args, err := cli.BuildArgs(t.options)
	if err != nil {
		return err
	}

	t.log.Debug("Built command arguments", "args", args)

	cwd := t.options.Cwd
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return &errors.CLIConnectionError{Err: fmt.Errorf("get working directory: %w", err)}
		}
	}

	// The process outlives Connect's context; Disconnect owns its teardown.
	//nolint:gosec // G204: launching the CLI with built arguments is the point
	cmd := exec.Command(cliPath, args...)
	cmd.Dir = cwd
	cmd.Env = cli.BuildEnvironment(t.options, id)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start CLI process", "error", err, "cwd", cwd)

		return &errors.CLIConnectionError{Err: fmt.Errorf("start %s: %w", cliPath, err)}
	}

	maxFrame := t.options.MaxBufferSize
	if maxFrame == 0 {
		maxFrame = DefaultMaxBufferSize
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.scanner = jsonl.NewScanner(stdout, maxFrame)
	t.stderrDone = make(chan struct{})
	t.exited = make(chan struct{})
	t.state = stateConnected

	go t.drainStderr(stderr, t.options.Stderr)

	t.log.Info("Claude CLI subprocess started", "pid", cmd.Process.Pid, "cwd", cwd)

	return nil
}

// drainStderr must finish before cmd.Wait, per os/exec.
func (t *CLITransport) drainStderr(r io.Reader, callback func(string)) {
	defer close(t.stderrDone)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		t.stderr.append(line)

		if callback != nil {
			callback(line)
		}
	}

	if err := scanner.Err(); err != nil {
		t.log.Debug("Stderr scanner error", "error", err)
	}
}

// SendRequest implements config.Transport. Each message is written as one
// JSON line. The options bag is not sent: the CLI receives its options as
// flags at startup.
func (t *CLITransport) SendRequest(ctx context.Context, messages []map[string]any, _ map[string]any) error {
	if err := t.requireConnected(); err != nil {
		return err
	}

	var buf bytes.Buffer

	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return &errors.SDKError{Message: "encode request", Err: err}
		}

		buf.Write(data)
		buf.WriteByte('\n')
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.stdinClosed {
		return &errors.CLIConnectionError{Err: errors.ErrStdinClosed}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	t.log.Debug("Sending request to CLI", "messages", len(messages), "bytes", buf.Len())

	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(buf.Bytes())
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return t.writeError(err)
		}
	case <-ctx.Done():
		// Closing stdin unblocks the pending write.
		t.closeStdinLocked()
		<-done

		return ctx.Err()
	}

	if t.prompt != "" {
		t.log.Debug("One-shot session, closing stdin")
		t.closeStdinLocked()
	}

	return nil
}

// writeError maps a failed stdin write. A CLI that rejected its arguments
// exits before reading stdin, so a write that hits a process which has
// already exited reports the exit instead of the broken pipe.
func (t *CLITransport) writeError(err error) error {
	select {
	case <-t.stderrDone:
	case <-time.After(exitGracePeriod):
		return &errors.CLIConnectionError{Err: fmt.Errorf("write to stdin: %w", err)}
	}

	if waitErr := t.wait(); waitErr != nil && !t.closing.Load() {
		return t.processError(waitErr)
	}

	return &errors.CLIConnectionError{Err: fmt.Errorf("write to stdin: %w", err)}
}

// CloseStdin signals end of input. The CLI finishes pending turns and exits.
func (t *CLITransport) CloseStdin() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.closeStdinLocked()
}

func (t *CLITransport) closeStdinLocked() error {
	if t.stdinClosed || t.stdin == nil {
		return nil
	}

	t.stdinClosed = true

	return t.stdin.Close()
}

// ReceiveMessages implements config.Transport. Blank lines are skipped. A
// line that is not valid JSON yields a CLIJSONDecodeError and ends the
// sequence. At end of output a nonzero exit yields a ProcessError carrying
// the buffered stderr, unless Disconnect caused the exit.
func (t *CLITransport) ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		if err := t.requireConnected(); err != nil {
			yield(nil, err)

			return
		}

		stop := context.AfterFunc(ctx, func() {
			_ = t.stdout.Close()
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
				t.log.Debug("Malformed frame from CLI", "line", t.lines, "error", err)
				yield(nil, errors.NewJSONDecodeError(line, t.lines, err))

				return
			}

			if !yield(record, nil) {
				return
			}
		}

		if err := ctx.Err(); err != nil {
			yield(nil, err)

			return
		}

		if err := t.scanner.Err(); err != nil {
			if t.closing.Load() {
				return
			}

			if stderrors.Is(err, bufio.ErrTooLong) {
				yield(nil, errors.NewJSONDecodeError(t.scanner.Oversized(), t.lines+1,
					fmt.Errorf("frame exceeds max buffer size of %d bytes: %w", t.scanner.Limit(), err)))

				return
			}

			yield(nil, &errors.CLIConnectionError{Err: fmt.Errorf("read stdout: %w", err)})

			return
		}

		if err := t.wait(); err != nil && !t.closing.Load() {
			yield(nil, t.processError(err))
		}
	}
}

func (t *CLITransport) processError(err error) *errors.ProcessError {
	exitCode := -1
	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		exitCode = exitErr.ExitCode()
	}

	stderr := cleanStderr(t.stderr.String())
	t.log.Error("CLI process exited with error", "exit_code", exitCode, "stderr", stderr)

	return &errors.ProcessError{ExitCode: exitCode, Stderr: stderr}
}

// wait reaps the process once. Stderr is drained first, as os/exec requires.
func (t *CLITransport) wait() error {
	t.waitOnce.Do(func() {
		<-t.stderrDone
		t.waitErr = t.cmd.Wait()
		close(t.exited)
	})

	return t.waitErr
}

// Disconnect implements config.Transport. It closes stdin, kills the process
// if it is still running, and reaps it. Calling it again is a no-op.
func (t *CLITransport) Disconnect() error {
	t.mu.Lock()
	prev := t.state
	t.state = stateClosed
	t.mu.Unlock()

	if prev != stateConnected {
		return nil
	}

	t.closing.Store(true)
	t.log.Info("Disconnecting Claude CLI subprocess", "pid", t.cmd.Process.Pid)

	if err := t.CloseStdin(); err != nil {
		t.log.Debug("Close stdin failed", "error", err)
	}

	select {
	case <-t.exited:
	default:
		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return &errors.CLIConnectionError{Err: fmt.Errorf("kill CLI process (pid %d): %w", t.cmd.Process.Pid, err)}
		}
	}

	_ = t.wait()

	return nil
}

// IsConnected implements config.Transport.
func (t *CLITransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state == stateConnected
}

func (t *CLITransport) requireConnected() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateConnected:
		return nil
	case stateClosed:
		return &errors.CLIConnectionError{Err: errors.ErrTransportClosed}
	default:
		return &errors.CLIConnectionError{Err: errors.ErrTransportNotConnected}
	}
}

type stderrBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *stderrBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() >= maxStderrBufferSize {
		return
	}

	if b.buf.Len() > 0 {
		b.buf.WriteByte('\n')
	}

	b.buf.WriteString(line)
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// cleanStderr drops Bun's minified source context lines ("1234 | <code>"),
// keeping the error message and stack trace.
func cleanStderr(stderr string) string {
	var kept []string

	for line := range strings.SplitSeq(stderr, "\n") {
		if !isSourceContextLine(strings.TrimSpace(line)) {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isSourceContextLine(line string) bool {
	prefix, _, found := strings.Cut(line, "|")
	if !found {
		return false
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return false
	}

	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
