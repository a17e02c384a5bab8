// Package validation adapts an external validation engine, invoked against
// a named rule-set identifier, into the send pipeline. The
// engine itself is an out-of-scope external collaborator; this
// package only defines the shape the pipeline drives it through.
package validation

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// Severity classifies one validation result item.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Result is a single finding produced by a validation executor run.
type Result struct {
	Severity Severity
	Message  string
}

// ErrUnknownRuleSet means the requested rule-set id has no registered
// executor.
var ErrUnknownRuleSet = errors.New("validation: unknown rule set")

// UnknownRuleSetError names the offending rule-set id.
type UnknownRuleSetError struct {
	RuleSetID string
}

func (e *UnknownRuleSetError) Error() string {
	return fmt.Sprintf("validation: unknown rule set %q", e.RuleSetID)
}

func (e *UnknownRuleSetError) Unwrap() error { return ErrUnknownRuleSet }

// Executor runs a rule set synchronously against an XML element and
// returns the collected results.
type Executor interface {
	Execute(ruleSetID string, payload *etree.Element) ([]Result, error)
}

// Registry looks up a registered Executor by rule-set id.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register binds ruleSetID to executor, replacing any prior binding.
func (r *Registry) Register(ruleSetID string, executor Executor) {
	r.executors[ruleSetID] = executor
}

// ResultHandler is notified of a validation run's outcome.
type ResultHandler interface {
	OnErrors(results []Result)
	OnSuccess(results []Result)
}

// NoopResultHandler is the default handler: it does nothing on either
// outcome.
type NoopResultHandler struct{}

func (NoopResultHandler) OnErrors(results []Result)  {}
func (NoopResultHandler) OnSuccess(results []Result) {}

// RaisingResultHandler panics on the first error-severity result instead of
// continuing. Callers that install it must
// recover at the call site driving the send pipeline.
type RaisingResultHandler struct{}

func (RaisingResultHandler) OnErrors(results []Result) {
	panic(fmt.Sprintf("validation: %d error(s), first: %s", len(results), firstErrorMessage(results)))
}

func (RaisingResultHandler) OnSuccess(results []Result) {}

func firstErrorMessage(results []Result) string {
	for _, res := range results {
		if res.Severity == SeverityError {
			return res.Message
		}
	}
	return ""
}

// Validate looks up ruleSetID in r, runs it against payload, and dispatches
// the outcome to handler: OnErrors if any result is error-severity, else
// OnSuccess.
func (r *Registry) Validate(ruleSetID string, payload *etree.Element, handler ResultHandler) ([]Result, error) {
	executor, ok := r.executors[ruleSetID]
	if !ok {
		return nil, &UnknownRuleSetError{RuleSetID: ruleSetID}
	}

	results, err := executor.Execute(ruleSetID, payload)
	if err != nil {
		return nil, fmt.Errorf("validation: executor %q failed: %w", ruleSetID, err)
	}

	hasError := false
	for _, res := range results {
		if res.Severity == SeverityError {
			hasError = true
			break
		}
	}

	if handler == nil {
		handler = NoopResultHandler{}
	}
	if hasError {
		handler.OnErrors(results)
	} else {
		handler.OnSuccess(results)
	}

	return results, nil
}
