package verification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Account is the snapshot of a user record the flow needs to issue and
// complete challenges. It is produced by the UserRepository implementation.
type Account struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
	Locked       bool
}

// UserRepository is the persistence boundary for accounts. Find methods
// return (nil, nil) when no record matches.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	// Create persists a new account from confirmed registration data with
	// the email already marked verified.
	Create(ctx context.Context, reg RegistrationPayload) (*Account, error)
	VerifyPassword(account *Account, password string) bool
	RecordFailedLogin(ctx context.Context, account *Account) error
	ResetFailedLoginCounters(ctx context.Context, account *Account) error
	UpdateLastLogin(ctx context.Context, account *Account) error
}

// CodeSender delivers a verification code to the user. Implementations must
// be safe to retry; the flow never mutates the store based on send failures.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string, purpose Purpose) error
}

// Config wires a Flow's collaborators.
type Config struct {
	Users  UserRepository
	Sender CodeSender

	// AllowBypass skips the exact code comparison for a live, unexpired
	// challenge that is still under its attempt budget. Only test harnesses
	// set this; it is never derived from the runtime environment.
	AllowBypass bool

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Challenge is returned by the begin and resend operations so the client can
// show a countdown.
type Challenge struct {
	Identity  string
	ExpiresAt time.Time
}

// SessionSubject identifies the authenticated account after a completed
// challenge. The HTTP layer mints the actual session credential from it.
type SessionSubject struct {
	AccountID string
	Role      string
}

// Flow runs the two-step register and login challenges on top of the code
// store.
type Flow struct {
	store       *Store
	users       UserRepository
	sender      CodeSender
	allowBypass bool
	now         func() time.Time
}

// NewFlow creates a flow with a fresh in-memory store.
func NewFlow(cfg Config) *Flow {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Flow{
		store:       NewStore(now),
		users:       cfg.Users,
		sender:      cfg.Sender,
		allowBypass: cfg.AllowBypass,
		now:         now,
	}
}

// Store exposes the underlying code store so the background sweep can run
// against it.
func (f *Flow) Store() *Store {
	return f.store
}

// BeginRegistration issues a challenge for a new account. The account fields
// are held in the challenge payload and nothing is persisted until the code
// is confirmed. Boundary validation (names, email shape, password policy) is
// the caller's job.
func (f *Flow) BeginRegistration(ctx context.Context, reg RegistrationPayload) (*Challenge, error) {
	identity := NormalizeEmail(reg.Email)
	reg.Email = identity

	existing, err := f.users.FindByEmail(ctx, identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	return f.issue(ctx, identity, PurposeRegister, reg)
}

// CompleteRegistration checks the code and, on match, creates the account
// with the email marked verified and clears the challenge.
func (f *Flow) CompleteRegistration(ctx context.Context, identity, code string) (*SessionSubject, error) {
	identity = NormalizeEmail(identity)

	payload, err := f.consume(identity, PurposeRegister, code)
	if err != nil {
		return nil, err
	}
	reg, ok := payload.(RegistrationPayload)
	if !ok {
		return nil, fmt.Errorf("challenge for %q carries unexpected payload %T", identity, payload)
	}

	account, err := f.users.Create(ctx, reg)
	if err != nil {
		return nil, err
	}

	f.store.Remove(identity, PurposeRegister)
	return &SessionSubject{AccountID: account.ID, Role: account.Role}, nil
}

// BeginLogin checks the password and, only if it matches, issues a login
// challenge. A wrong password increments the repository's failed-login
// counter and no code is sent.
func (f *Flow) BeginLogin(ctx context.Context, email, password string) (*Challenge, error) {
	identity := NormalizeEmail(email)

	account, err := f.users.FindByEmail(ctx, identity)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if account.Locked {
		return nil, ErrAccountLocked
	}

	if !f.users.VerifyPassword(account, password) {
		if err := f.users.RecordFailedLogin(ctx, account); err != nil {
			zap.S().Errorw("failed to record failed login", "email", identity, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	return f.issue(ctx, identity, PurposeLogin, LoginPayload{AccountID: account.ID})
}

// CompleteLogin checks the code and, on match, resets the account's lockout
// counters, stamps the last login, clears the challenge, and returns the
// session subject.
func (f *Flow) CompleteLogin(ctx context.Context, identity, code string) (*SessionSubject, error) {
	identity = NormalizeEmail(identity)

	payload, err := f.consume(identity, PurposeLogin, code)
	if err != nil {
		return nil, err
	}
	login, ok := payload.(LoginPayload)
	if !ok {
		return nil, fmt.Errorf("challenge for %q carries unexpected payload %T", identity, payload)
	}

	account, err := f.users.FindByID(ctx, login.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		// Account deleted between the two steps.
		return nil, ErrInvalidCredentials
	}

	if err := f.users.ResetFailedLoginCounters(ctx, account); err != nil {
		zap.S().Errorw("failed to reset login counters", "accountId", account.ID, "error", err)
	}
	if err := f.users.UpdateLastLogin(ctx, account); err != nil {
		zap.S().Errorw("failed to update last login", "accountId", account.ID, "error", err)
	}

	f.store.Remove(identity, PurposeLogin)
	return &SessionSubject{AccountID: account.ID, Role: account.Role}, nil
}

// Resend replaces the code for an outstanding challenge, carrying the
// original payload over unchanged and resetting attempts and expiry. Without
// a live challenge there is nothing to resend against.
func (f *Flow) Resend(ctx context.Context, identity string, purpose Purpose) (*Challenge, error) {
	identity = NormalizeEmail(identity)

	entry, ok := f.store.Get(identity, purpose)
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if f.now().After(entry.ExpiresAt) {
		f.store.Remove(identity, purpose)
		return nil, ErrChallengeNotFound
	}

	return f.issue(ctx, identity, purpose, entry.Payload)
}

// issue stores a fresh code and then dispatches it. The store write happens
// first so a slow or failing send never holds the store lock and never
// invalidates the challenge.
func (f *Flow) issue(ctx context.Context, identity string, purpose Purpose, payload Payload) (*Challenge, error) {
	code := generateCode()
	expires := f.store.Put(identity, purpose, code, payload)

	if err := f.sender.SendVerificationCode(ctx, identity, code, purpose); err != nil {
		zap.S().Errorw("verification code delivery failed",
			"email", identity,
			"purpose", purpose,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return &Challenge{Identity: identity, ExpiresAt: expires}, nil
}

// consume applies the lookup, expiry, and attempt policy for a completion
// call and returns the payload when the code matches. Expired and exhausted
// entries are removed on sight.
func (f *Flow) consume(identity string, purpose Purpose, code string) (Payload, error) {
	entry, ok := f.store.Get(identity, purpose)
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if entry.Attempts >= entry.MaxAttempts {
		f.store.Remove(identity, purpose)
		return nil, ErrTooManyAttempts
	}
	if f.now().After(entry.ExpiresAt) {
		f.store.Remove(identity, purpose)
		return nil, ErrChallengeNotFound
	}

	if entry.Code != code && !f.allowBypass {
		attempts := f.store.RecordAttempt(identity, purpose)
		if attempts >= entry.MaxAttempts {
			f.store.Remove(identity, purpose)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeIncorrect
	}

	return entry.Payload, nil
}
