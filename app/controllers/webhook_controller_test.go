package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationEventID(t *testing.T) {
	// The intermediate and final deliveries of one payment share a
	// transaction_id; the state keeps them apart.
	pending := confirmationEventID("payu-tx-1", "7")
	approved := confirmationEventID("payu-tx-1", "4")
	assert.NotEqual(t, pending, approved)

	// The same delivery always maps to the same id.
	assert.Equal(t, approved, confirmationEventID("payu-tx-1", "4"))

	// Without a transaction id the caller falls back to payload hashing.
	assert.Empty(t, confirmationEventID("", "4"))
}
