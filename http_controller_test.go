package ident_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ident "github.com/lanternhq/go-ident"
)

// apiFixture wires a controller against the in-memory store with verification
// bypassed, the way a non-production deployment runs.
type apiFixture struct {
	app    *fiber.App
	store  *memStore
	tokens *ident.TokenService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := newMemStore()
	tokens := newTokens()
	accounts := ident.NewAccounts(store, tokens, nil).WithVerificationBypass(true)

	app := fiber.New()
	controller := ident.NewController(accounts)
	controller.RegisterRoutes(app, ident.Protected(tokens))

	return &apiFixture{app: app, store: store, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path string, payload any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (f *apiFixture) register(t *testing.T, name, email, password string) (token string, user map[string]any) {
	t.Helper()

	resp, body := f.do(t, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register body: %v", body)

	token, _ = body["token"].(string)
	user, _ = body["user"].(map[string]any)
	require.NotEmpty(t, token)
	require.NotNil(t, user)
	return token, user
}

func TestControllerRegister(t *testing.T) {
	t.Run("created with usable token", func(t *testing.T) {
		f := newAPIFixture(t)

		resp, body := f.do(t, http.MethodPost, "/auth/register", map[string]string{
			"name":     "Ada",
			"email":    "ADA@EX.com",
			"password": "Abcdef12",
		}, "")

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "User registered successfully", body["message"])

		user := body["user"].(map[string]any)
		assert.Equal(t, "ada@ex.com", user["email"])
		assert.Equal(t, false, user["isVerified"])
		assert.NotContains(t, user, "password")
		assert.NotContains(t, user, "password_hash")

		claims, err := f.tokens.Validate(body["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, "ada@ex.com", claims.Email)
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		f := newAPIFixture(t)
		f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		resp, body := f.do(t, http.MethodPost, "/auth/register", map[string]string{
			"name":     "Other Ada",
			"email":    "ada@ex.com",
			"password": "Abcdef12",
		}, "")

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "User with this email already exists", body["error"])
	})

	t.Run("weak password returns details", func(t *testing.T) {
		f := newAPIFixture(t)

		resp, body := f.do(t, http.MethodPost, "/auth/register", map[string]string{
			"name":     "Ada",
			"email":    "ada@ex.com",
			"password": "short1",
		}, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Password validation failed", body["error"])

		details, ok := body["details"].([]any)
		require.True(t, ok)
		assert.Contains(t, details, "Password must be at least 8 characters long")
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newAPIFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{nope")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestControllerLogin(t *testing.T) {
	t.Run("success sets session cookie", func(t *testing.T) {
		f := newAPIFixture(t)
		f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		resp, body := f.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ada@ex.com",
			"password": "Abcdef12",
		}, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body["message"])

		var session *http.Cookie
		for _, cookie := range resp.Cookies() {
			if cookie.Name == ident.SessionCookieName {
				session = cookie
			}
		}
		require.NotNil(t, session, "expected a session cookie on login")
		assert.Equal(t, body["token"], session.Value)
		assert.True(t, session.HttpOnly)
		assert.Equal(t, "/", session.Path)
		assert.Equal(t, http.SameSiteStrictMode, session.SameSite)
		assert.False(t, session.Secure)
	})

	t.Run("wrong password and unknown email share one message", func(t *testing.T) {
		f := newAPIFixture(t)
		f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		respWrong, bodyWrong := f.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ada@ex.com",
			"password": "Wrongpass1",
		}, "")
		respUnknown, bodyUnknown := f.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "nobody@ex.com",
			"password": "Abcdef12",
		}, "")

		assert.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
		assert.Equal(t, "Invalid email or password", bodyWrong["error"])
		assert.Equal(t, bodyWrong["error"], bodyUnknown["error"])
	})
}

func TestControllerProfile(t *testing.T) {
	t.Run("show requires token", func(t *testing.T) {
		f := newAPIFixture(t)

		resp, body := f.do(t, http.MethodGet, "/user/profile", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Authorization token required", body["error"])
	})

	t.Run("show returns the session's user", func(t *testing.T) {
		f := newAPIFixture(t)
		token, _ := f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		resp, body := f.do(t, http.MethodGet, "/user/profile", nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		user := body["user"].(map[string]any)
		assert.Equal(t, "ada@ex.com", user["email"])
	})

	t.Run("update persists name and organization", func(t *testing.T) {
		f := newAPIFixture(t)
		token, _ := f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		resp, body := f.do(t, http.MethodPut, "/user/profile", map[string]string{
			"name":         "Ada Lovelace",
			"organization": "Analytical Engines",
		}, token)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Profile updated successfully", body["message"])

		user := body["user"].(map[string]any)
		assert.Equal(t, "Ada Lovelace", user["name"])
		assert.Equal(t, "Analytical Engines", user["organization"])

		resp, body = f.do(t, http.MethodGet, "/user/profile", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Ada Lovelace", body["user"].(map[string]any)["name"])
	})

	t.Run("update rejects an out-of-bounds name", func(t *testing.T) {
		f := newAPIFixture(t)
		token, _ := f.register(t, "Ada", "ada@ex.com", "Abcdef12")

		resp, body := f.do(t, http.MethodPut, "/user/profile", map[string]string{
			"name": "   ",
		}, token)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Validation failed", body["error"])
	})

	t.Run("deleted subject yields 404", func(t *testing.T) {
		f := newAPIFixture(t)
		token, _ := f.register(t, "Ada", "ada@ex.com", "Abcdef12")
		f.store.reset()

		resp, body := f.do(t, http.MethodGet, "/user/profile", nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", body["error"])
	})
}

func TestControllerUsersList(t *testing.T) {
	f := newAPIFixture(t)

	var token string
	for i := 0; i < 12; i++ {
		token, _ = f.register(t, fmt.Sprintf("User %02d", i), fmt.Sprintf("user%02d@ex.com", i), "Abcdef12")
	}

	t.Run("first page with defaults", func(t *testing.T) {
		resp, body := f.do(t, http.MethodGet, "/users", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		users := body["users"].([]any)
		assert.Len(t, users, 10)

		pagination := body["pagination"].(map[string]any)
		assert.EqualValues(t, 1, pagination["currentPage"])
		assert.EqualValues(t, 2, pagination["totalPages"])
		assert.EqualValues(t, 12, pagination["totalUsers"])
		assert.Equal(t, true, pagination["hasNext"])
		assert.Equal(t, false, pagination["hasPrev"])
	})

	t.Run("second page", func(t *testing.T) {
		resp, body := f.do(t, http.MethodGet, "/users?page=2", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		users := body["users"].([]any)
		assert.Len(t, users, 2)

		pagination := body["pagination"].(map[string]any)
		assert.EqualValues(t, 2, pagination["currentPage"])
		assert.Equal(t, false, pagination["hasNext"])
		assert.Equal(t, true, pagination["hasPrev"])
	})

	t.Run("search filters the page", func(t *testing.T) {
		resp, body := f.do(t, http.MethodGet, "/users?search=user07", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		users := body["users"].([]any)
		require.Len(t, users, 1)
		assert.Equal(t, "user07@ex.com", users[0].(map[string]any)["email"])
	})

	t.Run("requires token", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodGet, "/users", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestControllerHealth(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
