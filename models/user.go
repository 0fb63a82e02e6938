package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User holds the structure for the user collection in mongo. The account
// fields live nested under the "user" key, matching the document shape the
// storefront has always used.
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the inner user structure as defined in the user
// collection in mongo.
type UserDetails struct {
	FirstName           string     `json:"firstName" bson:"firstName"`
	LastName            string     `json:"lastName" bson:"lastName"`
	Email               string     `json:"email" bson:"email"`
	Password            string     `json:"-" bson:"password"`
	Phone               string     `json:"phone" bson:"phone"`
	NewsletterOptIn     bool       `json:"newsletterOptIn" bson:"newsletterOptIn"`
	Role                string     `json:"role" bson:"role"`
	IsEmailVerified     bool       `json:"isEmailVerified" bson:"isEmailVerified"`
	FailedLoginAttempts int        `json:"-" bson:"failedLoginAttempts"`
	LockUntil           *time.Time `json:"-" bson:"lockUntil,omitempty"`
	LastLoginAt         *time.Time `json:"lastLoginAt" bson:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
}
