package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bloomcart/storefront-api/verification"
)

func TestSweepRemovesOnlyExpiredCodes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := verification.NewStore(clock)

	store.Put("stale@x.com", verification.PurposeRegister, "111111", verification.RegistrationPayload{Email: "stale@x.com"})
	now = now.Add(verification.CodeLifetime + time.Second)
	store.Put("live@x.com", verification.PurposeLogin, "222222", verification.LoginPayload{AccountID: "id-1"})

	s := New(store)
	s.sweepVerificationCodes()

	_, ok := store.Get("stale@x.com", verification.PurposeRegister)
	assert.False(t, ok)
	_, ok = store.Get("live@x.com", verification.PurposeLogin)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestStartAndStop(t *testing.T) {
	s := New(verification.NewStore(nil))
	s.Start()
	s.Stop()
}
