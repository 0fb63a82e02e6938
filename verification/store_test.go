package verification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomcart/storefront-api/verification"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestStorePutAndGet(t *testing.T) {
	clock := newFakeClock()
	s := verification.NewStore(clock.now)

	expires := s.Put("a@x.com", verification.PurposeRegister, "123456", verification.RegistrationPayload{Email: "a@x.com"})
	assert.Equal(t, clock.now().Add(verification.CodeLifetime), expires)

	entry, ok := s.Get("a@x.com", verification.PurposeRegister)
	require.True(t, ok)
	assert.Equal(t, "123456", entry.Code)
	assert.Equal(t, 0, entry.Attempts)
	assert.Equal(t, verification.MaxAttempts, entry.MaxAttempts)
	assert.Equal(t, expires, entry.ExpiresAt)
}

func TestStoreGetMissing(t *testing.T) {
	s := verification.NewStore(nil)

	_, ok := s.Get("nobody@x.com", verification.PurposeLogin)
	assert.False(t, ok)
}

func TestStorePutOverwritesPreviousCode(t *testing.T) {
	s := verification.NewStore(nil)

	s.Put("a@x.com", verification.PurposeRegister, "111111", verification.RegistrationPayload{Email: "a@x.com"})
	s.RecordAttempt("a@x.com", verification.PurposeRegister)
	s.Put("a@x.com", verification.PurposeRegister, "222222", verification.RegistrationPayload{Email: "a@x.com"})

	entry, ok := s.Get("a@x.com", verification.PurposeRegister)
	require.True(t, ok)
	assert.Equal(t, "222222", entry.Code)
	assert.Equal(t, 0, entry.Attempts, "replacing a code must reset the attempt counter")
	assert.Equal(t, 1, s.Len())
}

func TestStoreKeysSeparatePurposes(t *testing.T) {
	s := verification.NewStore(nil)

	s.Put("a@x.com", verification.PurposeRegister, "111111", verification.RegistrationPayload{Email: "a@x.com"})
	s.Put("a@x.com", verification.PurposeLogin, "222222", verification.LoginPayload{AccountID: "id-1"})

	reg, ok := s.Get("a@x.com", verification.PurposeRegister)
	require.True(t, ok)
	login, ok := s.Get("a@x.com", verification.PurposeLogin)
	require.True(t, ok)

	assert.Equal(t, "111111", reg.Code)
	assert.Equal(t, "222222", login.Code)
}

func TestStoreRecordAttempt(t *testing.T) {
	s := verification.NewStore(nil)
	s.Put("a@x.com", verification.PurposeLogin, "123456", verification.LoginPayload{AccountID: "id-1"})

	assert.Equal(t, 1, s.RecordAttempt("a@x.com", verification.PurposeLogin))
	assert.Equal(t, 2, s.RecordAttempt("a@x.com", verification.PurposeLogin))

	// missing keys count as zero
	assert.Equal(t, 0, s.RecordAttempt("nobody@x.com", verification.PurposeLogin))
}

func TestStoreRemove(t *testing.T) {
	s := verification.NewStore(nil)
	s.Put("a@x.com", verification.PurposeRegister, "123456", verification.RegistrationPayload{Email: "a@x.com"})

	s.Remove("a@x.com", verification.PurposeRegister)
	_, ok := s.Get("a@x.com", verification.PurposeRegister)
	assert.False(t, ok)

	// removing again is a no-op
	s.Remove("a@x.com", verification.PurposeRegister)
}

func TestStoreSweepExpired(t *testing.T) {
	clock := newFakeClock()
	s := verification.NewStore(clock.now)

	s.Put("old@x.com", verification.PurposeRegister, "111111", verification.RegistrationPayload{Email: "old@x.com"})
	clock.advance(verification.CodeLifetime - time.Millisecond)
	s.Put("fresh@x.com", verification.PurposeRegister, "222222", verification.RegistrationPayload{Email: "fresh@x.com"})

	// first entry is now exactly 1ms past its expiry
	clock.advance(time.Millisecond)

	removed := s.SweepExpired()
	assert.Equal(t, 1, removed)

	_, ok := s.Get("old@x.com", verification.PurposeRegister)
	assert.False(t, ok)
	_, ok = s.Get("fresh@x.com", verification.PurposeRegister)
	assert.True(t, ok)
}

func TestStoreSweepEmpty(t *testing.T) {
	s := verification.NewStore(nil)
	assert.Equal(t, 0, s.SweepExpired())
}
