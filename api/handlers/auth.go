package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bloomcart/storefront-api/api"
	"github.com/bloomcart/storefront-api/config"
	"github.com/bloomcart/storefront-api/databases"
	"github.com/bloomcart/storefront-api/mailer"
	"github.com/bloomcart/storefront-api/verification"
)

// sessionTokenLifetime is how long a minted session JWT stays valid.
const sessionTokenLifetime = 24 * time.Hour

// Auth handles the two-step registration and login endpoints
type Auth struct {
	Flow      *verification.Flow
	Mailer    *mailer.Sendgrid
	JWTSecret string
}

// RegisterHandler validates new-account fields and issues a registration
// challenge. Nothing is persisted until the emailed code is confirmed.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Phone      string `json:"phone"`
		Newsletter bool   `json:"newsletter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.FirstName == "" || requestBody.LastName == "" {
		config.ErrorStatus("first and last name are required", http.StatusBadRequest, w, fmt.Errorf("missing name"))
		return
	}
	requestBody.Email = verification.NormalizeEmail(requestBody.Email)
	if _, err := mail.ParseAddress(requestBody.Email); err != nil {
		config.ErrorStatus("a valid email is required", http.StatusBadRequest, w, err)
		return
	}
	if len(requestBody.Password) < databases.MinPasswordLength {
		config.ErrorStatus("password is too short", http.StatusBadRequest, w,
			fmt.Errorf("password must be at least %d characters", databases.MinPasswordLength))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	challenge, err := a.Flow.BeginRegistration(ctx, verification.RegistrationPayload{
		FirstName:  requestBody.FirstName,
		LastName:   requestBody.LastName,
		Email:      requestBody.Email,
		Password:   requestBody.Password,
		Phone:      requestBody.Phone,
		Newsletter: requestBody.Newsletter,
	})
	if err != nil {
		a.writeFlowError(w, err)
		return
	}

	writeChallenge(w, challenge)
}

// VerifyRegistrationHandler completes a registration challenge. On success
// the account now exists and a session token is returned.
func (a Auth) VerifyRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	identity, code, ok := decodeVerifyRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	subject, err := a.Flow.CompleteRegistration(ctx, identity, code)
	if err != nil {
		a.writeFlowError(w, err)
		return
	}

	// Welcome email is best effort and never delays the response.
	go func(email string) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.S().Errorw("panic in welcome email", "email", email, "panic", rec)
			}
		}()
		sendCtx, sendCancel := api.WithQueryTimeout(nil)
		defer sendCancel()
		if err := a.Mailer.SendWelcome(sendCtx, email, ""); err != nil {
			zap.S().Warnw("failed to send welcome email", "email", email, "error", err)
		}
	}(identity)

	a.writeSession(w, subject)
}

// LoginHandler checks credentials and issues a login challenge. A wrong
// password never produces a code.
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Email == "" || requestBody.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	challenge, err := a.Flow.BeginLogin(ctx, requestBody.Email, requestBody.Password)
	if err != nil {
		a.writeFlowError(w, err)
		return
	}

	writeChallenge(w, challenge)
}

// VerifyLoginHandler completes a login challenge and returns a session
// token.
func (a Auth) VerifyLoginHandler(w http.ResponseWriter, r *http.Request) {
	identity, code, ok := decodeVerifyRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	subject, err := a.Flow.CompleteLogin(ctx, identity, code)
	if err != nil {
		a.writeFlowError(w, err)
		return
	}

	a.writeSession(w, subject)
}

// ResendCodeHandler re-issues the code for an outstanding challenge, keeping
// the original registration fields or login reference.
func (a Auth) ResendCodeHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	purpose := verification.Purpose(requestBody.Purpose)
	if purpose != verification.PurposeRegister && purpose != verification.PurposeLogin {
		config.ErrorStatus("purpose must be register or login", http.StatusBadRequest, w, fmt.Errorf("unknown purpose %q", requestBody.Purpose))
		return
	}
	if requestBody.Email == "" {
		config.ErrorStatus("email is required", http.StatusBadRequest, w, fmt.Errorf("email is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	challenge, err := a.Flow.Resend(ctx, requestBody.Email, purpose)
	if errors.Is(err, verification.ErrChallengeNotFound) {
		config.ErrorStatus("session expired, start over", http.StatusGone, w, err)
		return
	}
	if err != nil {
		a.writeFlowError(w, err)
		return
	}

	writeChallenge(w, challenge)
}

// decodeVerifyRequest pulls email and code out of a completion request and
// rejects malformed input before it reaches the flow.
func decodeVerifyRequest(w http.ResponseWriter, r *http.Request) (identity, code string, ok bool) {
	var requestBody struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return "", "", false
	}
	if requestBody.Email == "" {
		config.ErrorStatus("email is required", http.StatusBadRequest, w, fmt.Errorf("email is required"))
		return "", "", false
	}
	if !verification.ValidCodeFormat(requestBody.Code) {
		config.ErrorStatus("code must be 6 digits", http.StatusBadRequest, w, fmt.Errorf("malformed code"))
		return "", "", false
	}
	return requestBody.Email, requestBody.Code, true
}

// writeFlowError maps verification failure kinds onto transport responses.
func (a Auth) writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, verification.ErrAccountExists):
		config.ErrorStatus("email already exists", http.StatusConflict, w, err)
	case errors.Is(err, verification.ErrInvalidCredentials):
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
	case errors.Is(err, verification.ErrAccountLocked):
		config.ErrorStatus("account temporarily locked", http.StatusForbidden, w, err)
	case errors.Is(err, verification.ErrEmailDelivery):
		config.ErrorStatus("failed to send verification email", http.StatusBadGateway, w, err)
	case errors.Is(err, verification.ErrChallengeNotFound):
		config.ErrorStatus("verification code expired or not found", http.StatusNotFound, w, err)
	case errors.Is(err, verification.ErrTooManyAttempts):
		config.ErrorStatus("too many incorrect attempts", http.StatusTooManyRequests, w, err)
	case errors.Is(err, verification.ErrCodeIncorrect):
		config.ErrorStatus("incorrect verification code", http.StatusBadRequest, w, err)
	default:
		config.ErrorStatus("internal error", http.StatusInternalServerError, w, err)
	}
}

// writeSession mints the session JWT for a verified subject and writes the
// success body.
func (a Auth) writeSession(w http.ResponseWriter, subject *verification.SessionSubject) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject.AccountID,
		"role": subject.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(sessionTokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.JWTSecret))
	if err != nil {
		config.ErrorStatus("failed to sign session token", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"token":   signed,
		"userId":  subject.AccountID,
		"role":    subject.Role,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func writeChallenge(w http.ResponseWriter, challenge *verification.Challenge) {
	b, _ := json.Marshal(map[string]interface{}{
		"success":   true,
		"email":     challenge.Identity,
		"expiresAt": challenge.ExpiresAt.UTC().Format(time.RFC3339),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
