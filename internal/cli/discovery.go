package cli

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
)

const (
	// BinaryName is the executable looked up on $PATH.
	BinaryName = "claude"

	// MinimumVersion is the oldest CLI release known to speak stream-json input.
	MinimumVersion = "1.0.0"

	// VersionCheckTimeout bounds the `claude -v` check.
	VersionCheckTimeout = 2 * time.Second

	// EnvSkipVersionCheck disables the version check when set to any value.
	EnvSkipVersionCheck = "CLAUDE_CODE_SDK_SKIP_VERSION_CHECK"
)

var versionPattern = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)`)

// Config holds configuration for CLI discovery.
type Config struct {
	// CliPath is an explicit binary path. When set, nothing else is searched.
	CliPath string

	// SearchPaths replaces the built-in list of install locations checked
	// after $PATH.
	SearchPaths []string

	// SkipVersionCheck disables the version check.
	SkipVersionCheck bool

	Logger *slog.Logger
}

// Discoverer locates the Claude CLI binary.
type Discoverer struct {
	cfg Config
	log *slog.Logger
}

// NewDiscoverer creates a discoverer. A nil logger discards output.
func NewDiscoverer(cfg Config) *Discoverer {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Discoverer{
		cfg: cfg,
		log: log.With("component", "cli_discovery"),
	}
}

// DefaultSearchPaths returns the install locations checked after $PATH.
func DefaultSearchPaths() []string {
	paths := []string{
		"/usr/local/bin/claude",
		"/usr/bin/claude",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".npm-global/bin/claude"),
			filepath.Join(home, ".local/bin/claude"),
			filepath.Join(home, "node_modules/.bin/claude"),
			filepath.Join(home, ".yarn/bin/claude"),
		)
	}

	return paths
}

// Discover returns the path of the CLI binary, or a CLINotFoundError listing
// every location searched. A version below MinimumVersion is logged, not
// rejected.
func (d *Discoverer) Discover(ctx context.Context) (string, error) {
	path, err := d.find()
	if err != nil {
		d.log.Warn("Claude CLI not found", "error", err)

		return "", err
	}

	d.log.Debug("Found Claude CLI binary", "cli_path", path)

	if d.cfg.SkipVersionCheck || os.Getenv(EnvSkipVersionCheck) != "" {
		d.log.Debug("Skipping CLI version check")

		return path, nil
	}

	version, err := d.Version(ctx, path)
	switch {
	case err != nil:
		d.log.Debug("CLI version check failed", "error", err)
	case compareVersions(version, MinimumVersion) < 0:
		d.log.Warn("Claude CLI version is older than supported",
			"version", version,
			"minimum_required", MinimumVersion,
		)
	default:
		d.log.Debug("CLI version check passed", "version", version)
	}

	return path, nil
}

func (d *Discoverer) find() (string, error) {
	if d.cfg.CliPath != "" {
		if isExecutableFile(d.cfg.CliPath) {
			return d.cfg.CliPath, nil
		}

		return "", &errors.CLINotFoundError{SearchedPaths: []string{d.cfg.CliPath}}
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	candidates := d.cfg.SearchPaths
	if candidates == nil {
		candidates = DefaultSearchPaths()
	}

	searched := append(make([]string, 0, len(candidates)+1), "$PATH")

	for _, candidate := range candidates {
		searched = append(searched, candidate)

		if isExecutableFile(candidate) {
			return candidate, nil
		}
	}

	return "", &errors.CLINotFoundError{SearchedPaths: searched}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// Version runs `path -v` and extracts the leading X.Y.Z.
func (d *Discoverer) Version(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-v").Output()
	if err != nil {
		return "", fmt.Errorf("run %s -v: %w", path, err)
	}

	match := versionPattern.FindStringSubmatch(strings.TrimSpace(string(output)))
	if match == nil {
		return "", fmt.Errorf("unrecognized version output %q", strings.TrimSpace(string(output)))
	}

	return match[1], nil
}

// compareVersions compares two X.Y.Z versions and returns -1, 0, or 1.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		if c := cmp.Compare(versionPart(aParts, i), versionPart(bParts, i)); c != 0 {
			return c
		}
	}

	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}

	n, _ := strconv.Atoi(parts[i])

	return n
}
