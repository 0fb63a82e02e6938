package databases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloomcart/storefront-api/models"
	"github.com/bloomcart/storefront-api/verification"
)

type MockUserDatabase struct {
	mock.Mock
}

func (m *MockUserDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	args := m.Called(ctx, filter)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserDatabase) InsertOne(ctx context.Context, user models.User) (InsertOneResultHelper, error) {
	args := m.Called(ctx, user)
	res, _ := args.Get(0).(InsertOneResultHelper)
	return res, args.Error(1)
}

func (m *MockUserDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	res, _ := args.Get(0).(*mongo.UpdateResult)
	return res, args.Error(1)
}

func (m *MockUserDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func TestAccountFindByEmailMissing(t *testing.T) {
	users := new(MockUserDatabase)
	users.On("FindOne", mock.Anything, bson.M{"user.email": "nobody@x.com"}).
		Return(nil, mongo.ErrNoDocuments)

	store := NewAccountStore(users)

	account, err := store.FindByEmail(context.Background(), "nobody@x.com")
	assert.NoError(t, err)
	assert.Nil(t, account)
}

func TestAccountFindByEmailLockState(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		lockUntil *time.Time
		locked    bool
	}{
		{"no lock", nil, false},
		{"active lock", &future, true},
		{"expired lock", &past, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserDatabase)
			users.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
				ID: primitive.NewObjectID(),
				Details: models.UserDetails{
					Email:     "a@x.com",
					Role:      models.RoleCustomer,
					LockUntil: tt.lockUntil,
				},
			}, nil)

			store := NewAccountStore(users)
			account, err := store.FindByEmail(context.Background(), "a@x.com")
			require.NoError(t, err)
			assert.Equal(t, tt.locked, account.Locked)
		})
	}
}

func TestAccountCreateHashesPassword(t *testing.T) {
	users := new(MockUserDatabase)
	oid := primitive.NewObjectID()

	var inserted models.User
	users.On("InsertOne", mock.Anything, mock.AnythingOfType("models.User")).
		Return(MockInsertOneResult{id: oid}, nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.User)
		})

	store := NewAccountStore(users)

	account, err := store.Create(context.Background(), verification.RegistrationPayload{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Password:  "secret-password",
	})
	require.NoError(t, err)

	assert.Equal(t, oid.Hex(), account.ID)
	assert.Equal(t, models.RoleCustomer, account.Role)
	assert.True(t, inserted.Details.IsEmailVerified)
	assert.NotEqual(t, "secret-password", inserted.Details.Password, "password must never be stored in the clear")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Details.Password), []byte("secret-password")))
}

func TestAccountVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)

	store := NewAccountStore(new(MockUserDatabase))
	account := &verification.Account{PasswordHash: string(hash)}

	assert.True(t, store.VerifyPassword(account, "secret-password"))
	assert.False(t, store.VerifyPassword(account, "wrong-password"))
}

func TestAccountRecordFailedLogin(t *testing.T) {
	users := new(MockUserDatabase)
	oid := primitive.NewObjectID()

	var filters []interface{}
	users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			filters = append(filters, args.Get(1))
		})

	store := NewAccountStore(users)
	err := store.RecordFailedLogin(context.Background(), &verification.Account{ID: oid.Hex()})
	require.NoError(t, err)

	// counter bump, then the conditional lock write
	require.Len(t, filters, 2)
	assert.Equal(t, bson.M{"_id": oid}, filters[0])
	lockFilter, ok := filters[1].(bson.M)
	require.True(t, ok)
	assert.Contains(t, lockFilter, "user.failedLoginAttempts")
}
