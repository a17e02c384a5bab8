package validation

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	results []Result
	err     error
}

func (s stubExecutor) Execute(string, *etree.Element) ([]Result, error) {
	return s.results, s.err
}

type recordingHandler struct {
	errorCalls   int
	successCalls int
	lastResults  []Result
}

func (h *recordingHandler) OnErrors(results []Result) {
	h.errorCalls++
	h.lastResults = results
}

func (h *recordingHandler) OnSuccess(results []Result) {
	h.successCalls++
	h.lastResults = results
}

func TestValidate_UnknownRuleSet(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Validate("not-registered", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRuleSet)
}

func TestValidate_Success(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ubl-invoice", stubExecutor{results: []Result{{Severity: SeverityWarning, Message: "minor"}}})

	handler := &recordingHandler{}
	results, err := reg.Validate("ubl-invoice", nil, handler)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, handler.successCalls)
	assert.Equal(t, 0, handler.errorCalls)
}

func TestValidate_Errors(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ubl-invoice", stubExecutor{results: []Result{
		{Severity: SeverityError, Message: "missing element X"},
		{Severity: SeverityError, Message: "missing element Y"},
	}})

	handler := &recordingHandler{}
	results, err := reg.Validate("ubl-invoice", nil, handler)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, handler.errorCalls)
	assert.Equal(t, 0, handler.successCalls)
}

func TestValidate_NilHandlerDefaultsToNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ubl-invoice", stubExecutor{results: []Result{{Severity: SeverityError, Message: "boom"}}})

	_, err := reg.Validate("ubl-invoice", nil, nil)
	require.NoError(t, err)
}

func TestRaisingResultHandler_PanicsOnErrors(t *testing.T) {
	defer func() {
		r := recover()
		assert.NotNil(t, r)
	}()
	RaisingResultHandler{}.OnErrors([]Result{{Severity: SeverityError, Message: "boom"}})
	t.Fatal("expected panic")
}
