package hwprobe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// defaultProbeTimeout bounds every subprocess invocation a probe makes: each
// subprocess call has a bounded timeout, default 5 seconds per command.
var defaultProbeTimeout = 5 * time.Second

// SetDefaultTimeout overrides the default per-command timeout; primarily
// for tests that want faster failure on a stubbed binary.
func SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		defaultProbeTimeout = d
	}
}

// runProbe exists as a package-level function variable so test code can
// stub it out without touching the real shell.
var runProbe = runProbeReal

// runProbeReal executes name with args under a profile-isolated environment
// (no inherited shell rc files, no locale surprises) and a bounded timeout,
// and returns its stdout; stderr only appears in the error on failure. It
// never inherits an interactive shell.
func runProbeReal(ctx context.Context, name string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Env = []string{
		"PATH=/usr/bin:/bin:/usr/sbin:/sbin:/usr/local/bin",
		"HOME=/root",
		"LC_ALL=C",
	}
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		head := firstLine(out.String() + errBuf.String())
		return "", fmt.Errorf("command %q %v failed: %w (output: %q)", name, args, err, head)
	}
	return out.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

var numericTokenRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// firstNumericToken extracts the first well-formed number in s, ignoring
// shell banners and surrounding text (e.g. nvidia-smi's "[N/A]" markers or
// trailing units). Returns an error naming the payload head if none found.
func firstNumericToken(s string) (string, error) {
	m := numericTokenRe.FindString(s)
	if m == "" {
		return "", fmt.Errorf("no numeric token in output %q", firstLine(s))
	}
	return m, nil
}

var jsonTokenRe = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// firstJSONToken extracts the first well-formed-looking JSON object/array
// substring from s, ignoring any banner text printed before or after it.
func firstJSONToken(s string) (string, error) {
	m := jsonTokenRe.FindString(s)
	if m == "" {
		return "", fmt.Errorf("no JSON token in output %q", firstLine(s))
	}
	return m, nil
}

// commandAvailable reports whether name resolves on PATH, used to decide
// between vendor-specific probe branches without shelling out speculatively.
func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
