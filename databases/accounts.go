package databases

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloomcart/storefront-api/models"
	"github.com/bloomcart/storefront-api/verification"
)

// Account policy values enforced by this repository.
const (
	// MinPasswordLength is checked at the HTTP boundary before a
	// registration challenge is issued.
	MinPasswordLength = 8
	// maxFailedLogins is the number of wrong passwords before the account
	// locks.
	maxFailedLogins = 5
	// lockDuration is how long a locked account stays suspended.
	lockDuration = 2 * time.Hour
)

// AccountStore adapts the user collection to the account operations the
// verification flow needs.
type AccountStore struct {
	Users UserDatabase
}

// NewAccountStore wraps a user database.
func NewAccountStore(users UserDatabase) *AccountStore {
	return &AccountStore{Users: users}
}

// FindByEmail returns the account for an email, or (nil, nil) when none
// exists.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*verification.Account, error) {
	user, err := s.Users.FindOne(ctx, bson.M{"user.email": email})
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.toAccount(user), nil
}

// FindByID returns the account for a hex object id, or (nil, nil) when none
// exists.
func (s *AccountStore) FindByID(ctx context.Context, id string) (*verification.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.FindOne(ctx, bson.M{"_id": oid})
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.toAccount(user), nil
}

// Create persists a new account from confirmed registration data. The email
// is marked verified because the account only exists once the code was
// confirmed.
func (s *AccountStore) Create(ctx context.Context, reg verification.RegistrationPayload) (*verification.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		Details: models.UserDetails{
			FirstName:       reg.FirstName,
			LastName:        reg.LastName,
			Email:           reg.Email,
			Password:        string(hash),
			Phone:           reg.Phone,
			NewsletterOptIn: reg.Newsletter,
			Role:            models.RoleCustomer,
			IsEmailVerified: true,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	res, err := s.Users.InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}
	oid, _ := res.Decode().(primitive.ObjectID)

	return &verification.Account{
		ID:           oid.Hex(),
		Email:        user.Details.Email,
		Role:         user.Details.Role,
		PasswordHash: user.Details.Password,
	}, nil
}

// VerifyPassword compares a candidate password against the stored bcrypt
// hash.
func (s *AccountStore) VerifyPassword(account *verification.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}

// RecordFailedLogin bumps the failed-login counter and locks the account
// once it reaches the threshold. The lock write is filtered on the counter
// so concurrent failures cannot extend the lock twice.
func (s *AccountStore) RecordFailedLogin(ctx context.Context, account *verification.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return err
	}

	_, err = s.Users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"user.failedLoginAttempts": 1},
			"$set": bson.M{"user.updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}

	_, err = s.Users.UpdateOne(ctx,
		bson.M{
			"_id":                      oid,
			"user.failedLoginAttempts": bson.M{"$gte": maxFailedLogins},
		},
		bson.M{"$set": bson.M{"user.lockUntil": time.Now().Add(lockDuration)}},
	)
	return err
}

// ResetFailedLoginCounters clears the failed-login counter and any lock.
func (s *AccountStore) ResetFailedLoginCounters(ctx context.Context, account *verification.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return err
	}
	_, err = s.Users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set":   bson.M{"user.failedLoginAttempts": 0, "user.updatedAt": time.Now()},
			"$unset": bson.M{"user.lockUntil": ""},
		},
	)
	return err
}

// UpdateLastLogin stamps the last successful login time.
func (s *AccountStore) UpdateLastLogin(ctx context.Context, account *verification.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return err
	}
	_, err = s.Users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"user.lastLoginAt": time.Now(), "user.updatedAt": time.Now()}},
	)
	return err
}

func (s *AccountStore) toAccount(user *models.User) *verification.Account {
	locked := user.Details.LockUntil != nil && user.Details.LockUntil.After(time.Now())
	return &verification.Account{
		ID:           user.ID.Hex(),
		Email:        user.Details.Email,
		Role:         user.Details.Role,
		PasswordHash: user.Details.Password,
		Locked:       locked,
	}
}
