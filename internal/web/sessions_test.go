package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_CreateAndValidate(t *testing.T) {
	store := NewSessionStore(nil)

	token := store.Create()
	assert.NotEmpty(t, token)
	assert.True(t, store.Valid(token))
	assert.False(t, store.Valid("unknown-token"))
	assert.False(t, store.Valid(""))
}

func TestSessionStore_Expiry(t *testing.T) {
	current := time.Date(2025, time.November, 26, 10, 0, 0, 0, time.UTC)
	store := NewSessionStore(func() time.Time { return current })

	token := store.Create()
	assert.True(t, store.Valid(token))

	current = current.Add(sessionTTL + time.Minute)
	assert.False(t, store.Valid(token))

	// Expired token is gone for good, even if time rolls back.
	current = current.Add(-2 * time.Minute)
	assert.False(t, store.Valid(token))
}
