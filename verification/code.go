package verification

import (
	"fmt"
	"math/rand"
	"strings"
)

// generateCode picks a uniformly random 6-digit code. Guessing odds with the
// 3-attempt budget are ~1 in 300k per challenge, which is plenty for codes
// that also expire after 15 minutes.
func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// ValidCodeFormat reports whether code looks like a verification code:
// exactly six ASCII digits. Handlers reject anything else before touching
// the store.
func ValidCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NormalizeEmail lower-cases and trims an email address so it can be used as
// a challenge identity. All store keys go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
