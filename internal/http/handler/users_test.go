package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"docauth/internal/auth"
	"docauth/internal/model"
	"docauth/internal/service"
	serviceMocks "docauth/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/login/", Login(mockSvc, nil))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "correct horse").
			Return(&auth.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "Bearer"}, nil).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/login/", map[string]string{
			"username": "alice", "password": "correct horse",
		}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "acc", body["access_token"])
		assert.Equal(t, "ref", body["refresh_token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "wrong").Return(nil, service.ErrUnauthorized).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/login/", map[string]string{
			"username": "alice", "password": "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login/", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestRefreshToken(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/token/refresh/", RefreshToken(mockSvc, nil))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Refresh", mock.Anything, "ref").
			Return(&auth.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, nil).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/token/refresh/", map[string]string{"refresh_token": "ref"}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "acc2", body["access_token"])
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/token/refresh/", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("expired", func(t *testing.T) {
		mockSvc.On("Refresh", mock.Anything, "old").Return(nil, service.ErrUnauthorized).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/token/refresh/", map[string]string{"refresh_token": "old"}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCreateUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Post("/create_user/", CreateUser(mockSvc, nil))

	t.Run("success", func(t *testing.T) {
		u := &model.User{ID: uuid.New().String(), Username: "bob", PasswordHash: "$2a$secret"}
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(r service.CreateUserRequest) bool {
			return r.Username == "bob" && r.Password == "hunter22" && r.FirstName == "Bob"
		})).Return(u, nil).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/create_user/", map[string]string{
			"username": "bob", "password": "hunter22", "first_name": "Bob", "email": "bob@example.com",
		}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "bob", body["username"])
		assert.NotContains(t, body, "password_hash")
		assert.NotContains(t, body, "PasswordHash")
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: username already taken", service.ErrConflict)).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/create_user/", map[string]string{
			"username": "bob", "password": "hunter22",
		}))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: password too short", service.ErrInvalidInput)).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPost, "/create_user/", map[string]string{
			"username": "bob", "password": "x",
		}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListUsers(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users/", ListUsers(mockSvc, nil))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 20, 40).Return(&service.UserListResult{
			Items: []model.User{{Username: "alice"}},
			Total: 41,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users/?limit=20&offset=40", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.UserListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 41, result.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users/?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users/?offset=-1", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users/", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestUpdateUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Put("/users/:id/", withPrincipal(alice), UpdateUser(mockSvc, nil))

	t.Run("self update", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, *alice, alice.UserID, mock.MatchedBy(func(r service.UpdateUserRequest) bool {
			return r.Email != nil && *r.Email == "new@example.com" && r.Password == nil
		})).Return(&model.User{ID: alice.UserID, Username: "alice", Email: "new@example.com"}, nil).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPut, "/users/"+alice.UserID+"/", map[string]string{"email": "new@example.com"}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var u model.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
		assert.Equal(t, "new@example.com", u.Email)
	})

	t.Run("someone else", func(t *testing.T) {
		other := uuid.New().String()
		mockSvc.On("Update", mock.Anything, *alice, other, mock.Anything).Return(nil, service.ErrForbidden).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPut, "/users/"+other+"/", map[string]string{"email": "x@example.com"}))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		other := uuid.New().String()
		mockSvc.On("Update", mock.Anything, *alice, other, mock.Anything).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(jsonRequest(t, http.MethodPut, "/users/"+other+"/", map[string]string{"email": "x@example.com"}))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(t, http.MethodPut, "/users/42/", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}
