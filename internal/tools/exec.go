package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Lookup resolves binary against PATH so that a missing tool is reported once, before any
// file is touched.
func Lookup(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%v not found, please make sure it is installed and in your PATH: %w", binary, err)
	}
	return path, nil
}

// run executes binary and returns its standard output. A non-positive timeout means
// the call may block for as long as the tool does.
func run(ctx context.Context, timeout time.Duration, binary string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%v timed out after %v", binary, timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%v: %w: %v", binary, err, msg)
		}
		return nil, fmt.Errorf("%v: %w", binary, err)
	}

	return out, nil
}

// fileArg keeps a relative path starting with "-" from being parsed as an option.
func fileArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "." + string(filepath.Separator) + path
	}
	return path
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
