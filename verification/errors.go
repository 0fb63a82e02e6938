package verification

import "errors"

// Failure kinds returned by the flow. Handlers match on these with errors.Is
// and decide the transport-level response.
var (
	// ErrChallengeNotFound covers both "never issued" and "already expired or
	// consumed" so callers cannot probe which identities have codes pending.
	ErrChallengeNotFound = errors.New("verification code expired or not found")

	// ErrTooManyAttempts means the attempt budget is exhausted. The challenge
	// is removed as a side effect; the user has to start over.
	ErrTooManyAttempts = errors.New("too many incorrect verification attempts")

	// ErrCodeIncorrect means the supplied code did not match and attempts
	// remain. The challenge stays live.
	ErrCodeIncorrect = errors.New("incorrect verification code")

	// ErrEmailDelivery wraps a failure from the code sender. The stored code
	// stays valid so the caller can offer a resend.
	ErrEmailDelivery = errors.New("failed to deliver verification code")

	// ErrInvalidCredentials is returned by BeginLogin before any code is
	// issued; no challenge exists when this comes back.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountExists is returned by BeginRegistration when the email is
	// already taken.
	ErrAccountExists = errors.New("an account with this email already exists")

	// ErrAccountLocked is returned by BeginLogin when the account is
	// suspended by the repository's failed-login lockout policy.
	ErrAccountLocked = errors.New("account temporarily locked")
)
