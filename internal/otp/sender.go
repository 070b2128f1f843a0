package otp

import (
	"context"
	"log/slog"
)

// SandboxSender is the only Sender this module ships: it never calls a real
// SMS provider, it just logs the code at info level. config.SMS.Sandbox
// gates whether the HTTP edge additionally echoes the code back in the
// response body (spec.md §4.3's sandbox-mode behavior).
type SandboxSender struct {
	logger *slog.Logger
}

// NewSandboxSender constructs a SandboxSender.
func NewSandboxSender(logger *slog.Logger) *SandboxSender {
	return &SandboxSender{logger: logger}
}

func (s *SandboxSender) Send(ctx context.Context, phone, code string) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "otp_sandbox_dispatch", "phone", phone, "code", code)
	}
	return nil
}
