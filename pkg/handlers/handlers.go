// Package handlers provides the pluggable sinks the orchestrator reports
// warnings, errors, certificate-check outcomes, and validation results to:
// the central policy for "abort vs. continue".
package handlers

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/sufield/peppol-as2/pkg/certutil"
	"github.com/sufield/peppol-as2/pkg/validation"
)

// MessageHandler accumulates warnings and errors raised while the
// orchestrator verifies builder completeness.
type MessageHandler interface {
	Warn(msg string, cause error)
	Error(msg string, cause error)
	ErrorCount() int
}

// Issue is one recorded warning or error.
type Issue struct {
	Message string
	Cause   error
}

func (i Issue) String() string {
	if i.Cause != nil {
		return fmt.Sprintf("%s: %v", i.Message, i.Cause)
	}
	return i.Message
}

// AccumulatingMessageHandler is the default MessageHandler: it records
// every warning and error without aborting.
type AccumulatingMessageHandler struct {
	Warnings []Issue
	Errors   []Issue
}

// NewAccumulatingMessageHandler builds an empty handler.
func NewAccumulatingMessageHandler() *AccumulatingMessageHandler {
	return &AccumulatingMessageHandler{}
}

func (h *AccumulatingMessageHandler) Warn(msg string, cause error) {
	h.Warnings = append(h.Warnings, Issue{Message: msg, Cause: cause})
}

func (h *AccumulatingMessageHandler) Error(msg string, cause error) {
	h.Errors = append(h.Errors, Issue{Message: msg, Cause: cause})
}

func (h *AccumulatingMessageHandler) ErrorCount() int { return len(h.Errors) }

// RaisingMessageHandler panics on the first recorded error instead of
// continuing.
type RaisingMessageHandler struct {
	Warnings []Issue
	errors   int
}

func (h *RaisingMessageHandler) Warn(msg string, cause error) {
	h.Warnings = append(h.Warnings, Issue{Message: msg, Cause: cause})
}

func (h *RaisingMessageHandler) Error(msg string, cause error) {
	h.errors++
	panic(Issue{Message: msg, Cause: cause}.String())
}

func (h *RaisingMessageHandler) ErrorCount() int { return h.errors }

// CertificateCheckResultHandler reacts to an access point certificate
// check outcome.
type CertificateCheckResultHandler interface {
	OnResult(cert *x509.Certificate, checkedAt time.Time, outcome certutil.CheckResult) error
}

// RejectOnInvalidHandler is the default CertificateCheckResultHandler: it
// returns an error for any non-valid outcome.
type RejectOnInvalidHandler struct{}

func (RejectOnInvalidHandler) OnResult(cert *x509.Certificate, checkedAt time.Time, outcome certutil.CheckResult) error {
	if outcome.OK() {
		return nil
	}
	return fmt.Errorf("certutil: access point certificate check failed: %s", outcome.Error())
}

// AcceptAllHandler lets any outcome through; a custom handler that accepts
// the builder's own policy instead of the library default.
type AcceptAllHandler struct{}

func (AcceptAllHandler) OnResult(cert *x509.Certificate, checkedAt time.Time, outcome certutil.CheckResult) error {
	return nil
}

// ValidationResultHandlerAdapter is the default validation.ResultHandler:
// a no-op.
type ValidationResultHandlerAdapter = validation.NoopResultHandler
