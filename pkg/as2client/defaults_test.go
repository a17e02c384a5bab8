package as2client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_SenderKeyAliasDefaultsFromSenderAS2ID(t *testing.T) {
	cfg := applyDefaults(Config{SenderAS2ID: "POP000123"})
	assert.Equal(t, "POP000123", cfg.SenderKeyAlias)
}

func TestApplyDefaults_SenderKeyAliasLeftAloneWhenSet(t *testing.T) {
	cfg := applyDefaults(Config{SenderAS2ID: "POP000123", SenderKeyAlias: "my-alias"})
	assert.Equal(t, "my-alias", cfg.SenderKeyAlias)
}

func TestApplyDefaults_ReceiverKeyAliasDefaultsFromReceiverAS2ID(t *testing.T) {
	cfg := applyDefaults(Config{ReceiverAS2ID: "POP000456"})
	assert.Equal(t, "POP000456", cfg.ReceiverKeyAlias)
}
