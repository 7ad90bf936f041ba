package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/storage"
)

const testSecret = "test-secret"

func testEmployee() *storage.Employee {
	return &storage.Employee{ID: 7, FirstName: "Bob", LastName: "Ray", Position: "employee"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken(testEmployee(), testSecret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.EmployeeID)
	assert.Equal(t, "employee", claims.Position)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := NewAccessToken(testEmployee(), testSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	token, err := NewAccessToken(testEmployee(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestBearerMiddleware(t *testing.T) {
	var gotID *int64
	handler := Bearer(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = EmployeeID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := NewAccessToken(testEmployee(), testSecret, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, gotID)
		assert.Equal(t, int64(7), *gotID)
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := Bearer(testSecret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	employeeToken, err := NewAccessToken(testEmployee(), testSecret, time.Minute)
	require.NoError(t, err)
	adminToken, err := NewAccessToken(&storage.Employee{ID: 1, Position: "admin"}, testSecret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+employeeToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
