package claudecode

import (
	"log/slog"
	"sync"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/conn"
	"github.com/codegen-sh/claude-code-sdk-go/internal/subprocess"
)

const (
	// Entrypoint tags every connection made through this package.
	Entrypoint = "sdk-go"

	// Version is the SDK version reported to the peer.
	Version = "0.0.18"
)

// Transport is the channel a session uses to talk to the peer. Supply one
// with WithTransport, or let Query spawn the claude CLI.
type Transport = config.Transport

// Identity is the entrypoint and version tag sent on Connect.
type Identity = config.Identity

// Dialer opens the connection used by a conn transport.
type Dialer = conn.Dialer

// identity is computed once per process and passed into every Connect.
var identity = sync.OnceValue(func() Identity {
	return Identity{Entrypoint: Entrypoint, Version: Version}
})

// NewSubprocessTransport returns the default transport, which runs the claude
// CLI as a child process. A nil logger discards output.
func NewSubprocessTransport(log *slog.Logger) Transport {
	if log == nil {
		log = NopLogger()
	}

	return subprocess.NewCLITransport(log)
}

// NewConnTransport returns a transport speaking newline-delimited JSON over
// the connection dial opens.
func NewConnTransport(log *slog.Logger, dial Dialer) Transport {
	if log == nil {
		log = NopLogger()
	}

	return conn.New(log, dial)
}

// TCPDialer dials addr over TCP.
func TCPDialer(addr string) Dialer {
	return conn.TCPDialer(addr)
}
