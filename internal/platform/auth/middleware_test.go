package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(testSecret)
	require.NoError(t, err)
	return tok
}

func newAuthedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "admin": IsAdmin(c)})
	})
	r.GET("/probe", handlers...)
	return r
}

func doProbe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthValidToken(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret))
	tok := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "student@2ie-edu.org",
		"role": RoleStudent,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w := doProbe(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "student@2ie-edu.org")
}

func TestRequireAuthMissingHeader(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret))
	w := doProbe(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret))
	for _, h := range []string{"Bearer", "Basic abc", "Bearer  "} {
		w := doProbe(r, h)
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret))
	tok := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "student@2ie-edu.org",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	w := doProbe(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWrongAlgRejected(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret))
	tok := signToken(t, jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "student@2ie-edu.org",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := doProbe(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleAdminOnly(t *testing.T) {
	r := newAuthedRouter(RequireAuth(testSecret), RequireRole(RoleAdmin))

	student := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "student@2ie-edu.org",
		"role": RoleStudent,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w := doProbe(r, "Bearer "+student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "bibliothecaire@2ie-edu.org",
		"role": RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w = doProbe(r, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)
}
