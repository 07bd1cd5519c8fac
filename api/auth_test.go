package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockManagerDirectory struct {
	mock.Mock
}

func (m *MockManagerDirectory) ManagedCafeIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, subject, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func serveWithAuth(managers ManagerDirectory, header string) (*httptest.ResponseRecorder, *domain.Requester) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var seen *domain.Requester
	router.GET("/me", RequireRequester(testSecret, managers), func(c *gin.Context) {
		req, err := requesterFrom(c)
		if err == nil {
			seen = &req
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/me", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, r)
	return w, seen
}

func TestRequireRequester_User(t *testing.T) {
	managers := &MockManagerDirectory{}
	token := signToken(t, testSecret, jwt.SigningMethodHS256, "5", " User ", time.Hour)

	w, req := serveWithAuth(managers, "Bearer "+token)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, req)
	assert.Equal(t, domain.Requester{UserID: 5, Role: domain.RoleUser}, *req)
	managers.AssertNotCalled(t, "ManagedCafeIDs", mock.Anything, mock.Anything)
}

func TestRequireRequester_ManagerGetsCafes(t *testing.T) {
	managers := &MockManagerDirectory{}
	managers.On("ManagedCafeIDs", mock.Anything, int64(10)).Return([]int64{1, 4}, nil).Once()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, "10", "manager", time.Hour)

	w, req := serveWithAuth(managers, "Bearer "+token)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, req)
	assert.Equal(t, domain.RoleManager, req.Role)
	assert.Equal(t, []int64{1, 4}, req.ManagedCafeIDs)
	managers.AssertExpectations(t)
}

func TestRequireRequester_Rejects(t *testing.T) {
	testCases := []struct {
		name       string
		header     func(t *testing.T) string
		wantStatus int
	}{
		{"no header", func(t *testing.T) string { return "" }, http.StatusUnauthorized},
		{"not bearer", func(t *testing.T) string { return "Basic abc" }, http.StatusUnauthorized},
		{"garbage token", func(t *testing.T) string { return "Bearer abc.def.ghi" }, http.StatusUnauthorized},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, "5", "user", time.Hour)
		}, http.StatusUnauthorized},
		{"wrong algorithm", func(t *testing.T) string {
			return "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, "5", "user", time.Hour)
		}, http.StatusUnauthorized},
		{"expired", func(t *testing.T) string {
			return "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, "5", "user", -time.Minute)
		}, http.StatusUnauthorized},
		{"non numeric subject", func(t *testing.T) string {
			return "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, "alice", "user", time.Hour)
		}, http.StatusUnauthorized},
		{"unknown role", func(t *testing.T) string {
			return "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, "5", "owner", time.Hour)
		}, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, req := serveWithAuth(&MockManagerDirectory{}, tc.header(t))

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Nil(t, req)
		})
	}
}

func TestRequireRequester_DirectoryFailure(t *testing.T) {
	managers := &MockManagerDirectory{}
	managers.On("ManagedCafeIDs", mock.Anything, int64(10)).Return(nil, errors.New("db down")).Once()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, "10", "manager", time.Hour)

	w, req := serveWithAuth(managers, "Bearer "+token)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
	assert.Nil(t, req)
}
