package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sufield/peppol-as2/pkg/certutil"
)

func TestAccumulatingMessageHandler(t *testing.T) {
	h := NewAccumulatingMessageHandler()
	h.Warn("low priority", nil)
	h.Error("missing field", errors.New("cause"))
	h.Error("another issue", nil)

	assert.Len(t, h.Warnings, 1)
	assert.Equal(t, 2, h.ErrorCount())
}

func TestRaisingMessageHandler_PanicsOnError(t *testing.T) {
	h := &RaisingMessageHandler{}
	assert.Panics(t, func() {
		h.Error("boom", nil)
	})
}

func TestRejectOnInvalidHandler(t *testing.T) {
	h := RejectOnInvalidHandler{}

	ok := certutil.CheckResult{Status: certutil.Valid}
	assert.NoError(t, h.OnResult(nil, time.Now(), ok))

	bad := certutil.CheckResult{Status: certutil.Expired, Reason: "past NotAfter"}
	assert.Error(t, h.OnResult(nil, time.Now(), bad))
}

func TestAcceptAllHandler(t *testing.T) {
	h := AcceptAllHandler{}
	bad := certutil.CheckResult{Status: certutil.Expired}
	assert.NoError(t, h.OnResult(nil, time.Now(), bad))
}
