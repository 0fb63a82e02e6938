package verification

import (
	"sync"
	"time"
)

// Purpose discriminates which flow a challenge belongs to. The store treats
// it as opaque; two challenges for the same email but different purposes
// never collide.
type Purpose string

// The two challenge purposes the flow issues.
const (
	PurposeRegister Purpose = "register"
	PurposeLogin    Purpose = "login"
)

// Policy values for every challenge.
const (
	// CodeLifetime is how long a code stays valid after issuance.
	CodeLifetime = 15 * time.Minute
	// MaxAttempts is the number of failed comparisons allowed per code.
	MaxAttempts = 3
	// SweepInterval is how often the background sweep should run.
	SweepInterval = 5 * time.Minute
)

// Payload is the provisional data carried by a challenge until the code is
// confirmed. It is a sealed union: RegistrationPayload for sign-up (the
// account does not exist yet) and LoginPayload for sign-in (only a reference
// to the existing account).
type Payload interface {
	challengePayload()
}

// RegistrationPayload holds everything needed to create the account once the
// email is proven. Password arrives in the clear here and is hashed by the
// repository at creation time.
type RegistrationPayload struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Phone      string
	Newsletter bool
}

func (RegistrationPayload) challengePayload() {}

// LoginPayload references the account a pending login belongs to.
type LoginPayload struct {
	AccountID string
}

func (LoginPayload) challengePayload() {}

// Entry is one outstanding challenge.
type Entry struct {
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	Payload     Payload
}

type storeKey struct {
	identity string
	purpose  Purpose
}

// Store holds outstanding verification codes in process memory. A restart
// drops every pending challenge; clients simply request a new code.
type Store struct {
	mu      sync.Mutex
	entries map[storeKey]*Entry
	now     func() time.Time
}

// NewStore creates an empty store. now may be nil, in which case time.Now is
// used; tests inject a fake clock to exercise expiry without sleeping.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		entries: make(map[storeKey]*Entry),
		now:     now,
	}
}

// Put creates or replaces the challenge for (identity, purpose) and returns
// its expiry. Replacing invalidates any previously issued code for the key
// and resets the attempt counter.
func (s *Store) Put(identity string, purpose Purpose, code string, payload Payload) time.Time {
	now := s.now()
	expires := now.Add(CodeLifetime)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey{identity, purpose}] = &Entry{
		Code:        code,
		IssuedAt:    now,
		ExpiresAt:   expires,
		Attempts:    0,
		MaxAttempts: MaxAttempts,
		Payload:     payload,
	}
	return expires
}

// Get returns a copy of the challenge for the key, or ok=false when none
// exists. It has no side effects; expiry and attempt policy are the
// caller's decision.
func (s *Store) Get(identity string, purpose Purpose) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[storeKey{identity, purpose}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// RecordAttempt increments the failed-attempt counter for the key and
// returns the new count. A missing entry counts as zero.
func (s *Store) RecordAttempt(identity string, purpose Purpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[storeKey{identity, purpose}]
	if !ok {
		return 0
	}
	e.Attempts++
	return e.Attempts
}

// Remove deletes the challenge for the key. Removing a missing entry is a
// no-op.
func (s *Store) Remove(identity string, purpose Purpose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, storeKey{identity, purpose})
}

// SweepExpired deletes every challenge whose expiry has passed and returns
// how many were removed. The periodic sweep bounds memory growth for codes
// that were issued but never verified.
func (s *Store) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if !e.ExpiresAt.After(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
