package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Converter converts an input document to PDF bytes.
type Converter interface {
	ConvertToPDF(ctx context.Context, in Input) ([]byte, error)
}

// LibreOffice converts documents by running soffice in headless mode.
// Each conversion uses a private user profile so that concurrent runs do
// not contend for the profile lock.
type LibreOffice struct {
	// Binary is the soffice executable. Defaults to "soffice".
	Binary string

	// Timeout bounds one conversion attempt. Defaults to 2 minutes.
	Timeout time.Duration

	// Attempts is the number of tries for transient failures. Defaults to 2.
	Attempts int

	Logger *log.Logger
}

const defaultConvertTimeout = 2 * time.Minute

// ConvertToPDF implements [Converter].
func (l *LibreOffice) ConvertToPDF(ctx context.Context, in Input) ([]byte, error) {
	bin := l.Binary
	if bin == "" {
		bin = "soffice"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err,
			"LibreOffice is required to convert %s; install it or put soffice on PATH", in.Name)
	}

	dir, err := os.MkdirTemp("", "pagestack-soffice-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create work directory")
	}
	defer os.RemoveAll(dir)

	ext := strings.ToLower(filepath.Ext(in.Name))
	input := filepath.Join(dir, "input"+ext)
	if err := os.WriteFile(input, in.Data, 0o600); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", input)
	}
	profile := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(dir, "profile"))}).String()

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	attempts := l.Attempts
	if attempts <= 0 {
		attempts = 2
	}

	logger := l.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	err = Retry(ctx, attempts, time.Second, func() error {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, path,
			"-env:UserInstallation="+profile,
			"--headless", "--norestore",
			"--convert-to", "pdf",
			"--outdir", dir,
			input,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		start := time.Now()
		logger.Debug("running soffice", "input", in.Name, "binary", path)
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg := strings.TrimSpace(stderr.String())
			var exitErr *exec.ExitError
			if stderrors.As(err, &exitErr) || stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
				logger.Warn("soffice failed, retrying", "input", in.Name, "error", err, "stderr", msg)
				return &RetryableError{Err: fmt.Errorf("soffice: %w: %s", err, msg)}
			}
			return fmt.Errorf("soffice: %w", err)
		}
		logger.Debug("soffice finished", "input", in.Name, "duration", time.Since(start))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "convert %s with LibreOffice", in.Name)
	}

	out, err := os.ReadFile(filepath.Join(dir, "input.pdf"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "LibreOffice produced no PDF for %s", in.Name)
	}
	return out, nil
}
