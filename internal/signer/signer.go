// Package signer produces detached signatures by running an external signing
// program. The program holds the certificates; this service only knows their
// identifiers.
//
// The program is invoked as
//
//	<path> <certificate> <payload|payload-file>
//
// Payloads longer than the inline limit are written to a temporary file and the
// file path is passed instead of the payload itself. A zero exit status means
// standard output is the signature; anything else is a failure carrying the
// program's output.
package signer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/metrics"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
)

// DefaultInlineLimit is the largest payload passed on the command line.
const DefaultInlineLimit = 1000

// waitDelay bounds how long output is drained after the program is killed.
const waitDelay = 2 * time.Second

// Signer signs payloads with the certificate identified by certificate.
type Signer interface {
	Sign(ctx context.Context, payload, certificate string) result.Result[string]
}

// ProcessSigner runs an external signing program for every signature.
type ProcessSigner struct {
	path        string
	name        string
	inlineLimit int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a ProcessSigner.
type Option func(*ProcessSigner)

// WithInlineLimit sets the largest payload passed as an argument.
func WithInlineLimit(n int) Option {
	return func(s *ProcessSigner) { s.inlineLimit = n }
}

// WithTimeout bounds each signer run. Zero means no bound other than the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *ProcessSigner) { s.timeout = d }
}

// NewProcessSigner returns a signer that runs the program at path.
func NewProcessSigner(path string, logger *slog.Logger, opts ...Option) *ProcessSigner {
	s := &ProcessSigner{
		path:        path,
		name:        filepath.Base(path),
		inlineLimit: DefaultInlineLimit,
		logger:      logger.With(slog.String("component", "signer")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the file name of the signing program.
func (s *ProcessSigner) Name() string { return s.name }

// Sign runs the signing program and returns its output with trailing line breaks removed.
func (s *ProcessSigner) Sign(ctx context.Context, payload, certificate string) result.Result[string] {
	r := s.run(ctx, payload, certificate)
	metrics.RecordSignerInvocation(s.name, r.IsSuccess())
	if !r.IsSuccess() {
		s.logger.Warn("signing failed",
			slog.String("certificate", certificate),
			slog.Int("payload_length", len(payload)),
			slog.String("error", r.Err().Error()))
	}
	return r
}

func (s *ProcessSigner) run(ctx context.Context, payload, certificate string) result.Result[string] {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	arg := payload
	if len(payload) > s.inlineLimit {
		path, err := writePayloadFile(payload)
		if err != nil {
			return result.Failure[string](fmt.Sprintf("error while trying to sign data: %v", err))
		}
		defer os.Remove(path)
		arg = path
	}

	var stdout, stderr bytes.Buffer
	// #nosec G204 -- the program path comes from server configuration
	command := exec.CommandContext(ctx, s.path, certificate, arg)
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.WaitDelay = waitDelay

	if err := command.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return result.Failure[string](fmt.Sprintf("[%s] %s", s.name, diagnostic(stdout.String(), stderr.String())))
		}
		return result.Failure[string](fmt.Sprintf("[%s] error while trying to sign data: %v", s.name, err))
	}

	signature := strings.TrimRight(stdout.String(), "\r\n")
	if signature == "" {
		return result.Failure[string](fmt.Sprintf("[%s] signer produced no output", s.name))
	}
	return result.Success(signature)
}

func writePayloadFile(payload string) (string, error) {
	f, err := os.CreateTemp("", "oms-sign-*.dat")
	if err != nil {
		return "", fmt.Errorf("failed to create payload file: %w", err)
	}
	if _, err := f.WriteString(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write payload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close payload file: %w", err)
	}
	return f.Name(), nil
}

// diagnostic prefers stdout, which is where the signing program reports errors.
func diagnostic(stdout, stderr string) string {
	out := strings.TrimSpace(stdout)
	if out == "" {
		out = strings.TrimSpace(stderr)
	}
	return out
}
