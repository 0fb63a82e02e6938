package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bloomcart/storefront-api/databases"
	"github.com/bloomcart/storefront-api/models"
)

type MockUserDatabase struct {
	mock.Mock
}

func (m *MockUserDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	args := m.Called(ctx, filter)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserDatabase) InsertOne(ctx context.Context, user models.User) (databases.InsertOneResultHelper, error) {
	args := m.Called(ctx, user)
	res, _ := args.Get(0).(databases.InsertOneResultHelper)
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

func userRequest(method, target, body string, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if userID != "" {
		req = mux.SetURLVars(req, map[string]string{"user_id": userID})
	}
	return req
}

func TestUserHandlerBadID(t *testing.T) {
	u := User{DB: new(MockUserDatabase)}

	rr := httptest.NewRecorder()
	u.UserHandler(rr, userRequest(http.MethodGet, "/api/v1/user/nope", "", "nope"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestUserHandlerNotFound(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	u := User{DB: db}

	oid := primitive.NewObjectID().Hex()
	rr := httptest.NewRecorder()
	u.UserHandler(rr, userRequest(http.MethodGet, "/api/v1/user/"+oid, "", oid))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserHandlerSuccess(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			FirstName: "A",
			Email:     "a@x.com",
			Role:      models.RoleCustomer,
		},
	}, nil)
	u := User{DB: db}

	oid := primitive.NewObjectID().Hex()
	rr := httptest.NewRecorder()
	u.UserHandler(rr, userRequest(http.MethodGet, "/api/v1/user/"+oid, "", oid))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"a@x.com"`)
	// the hash never leaves the API
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestUpdateUserHandlerNotFound(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	u := User{DB: db}

	oid := primitive.NewObjectID().Hex()
	rr := httptest.NewRecorder()
	u.UpdateUserHandler(rr, userRequest(http.MethodPut, "/api/v1/user/"+oid, `{"firstName": "New"}`, oid))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateUserHandlerSuccess(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	u := User{DB: db}

	oid := primitive.NewObjectID().Hex()
	rr := httptest.NewRecorder()
	u.UpdateUserHandler(rr, userRequest(http.MethodPut, "/api/v1/user/"+oid, `{"firstName": "New", "newsletter": false}`, oid))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success": true`)
}

func TestUserCheckEmailAvailable(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	u := User{DB: db}

	rr := httptest.NewRecorder()
	u.UserCheckEmailHandler(rr, userRequest(http.MethodPost, "/api/v1/user/check-email", `{"email": "new@x.com"}`, ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"available": true`)
}

func TestUserCheckEmailTaken(t *testing.T) {
	db := new(MockUserDatabase)
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	u := User{DB: db}

	rr := httptest.NewRecorder()
	u.UserCheckEmailHandler(rr, userRequest(http.MethodPost, "/api/v1/user/check-email", `{"email": "a@x.com"}`, ""))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already exists")
}
