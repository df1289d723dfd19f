package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewSessionManager_RequiresSecret(t *testing.T) {
	_, err := NewSessionManager("", time.Hour, false)
	assert.Error(t, err)
}

func TestSessionManager_IssueAndVerify(t *testing.T) {
	m, err := NewSessionManager("secret", time.Hour, false)
	require.NoError(t, err)

	token, err := m.Issue("admin")
	require.NoError(t, err)

	username, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)

	other, err := NewSessionManager("other-secret", time.Hour, false)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestSessionManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m, err := NewSessionManager("secret", time.Hour, false)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    sessionIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(expired)
	assert.Error(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "admin",
		Issuer:  sessionIssuer,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(noExpiry)
	assert.Error(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(wrongIssuer)
	assert.Error(t, err)
}

func TestRequireSession(t *testing.T) {
	m, err := NewSessionManager("secret", time.Hour, false)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/", m.RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, "hello "+Username(c))
	})

	t.Run("no cookie redirects", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("garbage cookie redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("valid session passes", func(t *testing.T) {
		token, err := m.Issue("admin")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello admin", w.Body.String())
	})
}

func TestSessionManager_LoginSetsHttpOnlyCookie(t *testing.T) {
	m, err := NewSessionManager("secret", time.Hour, true)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/login", func(c *gin.Context) {
		require.NoError(t, m.Login(c, "admin"))
		c.Status(http.StatusNoContent)
	})
	router.GET("/logout", func(c *gin.Context) {
		m.Logout(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout", nil))
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestBearerSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"case-insensitive scheme", "s3cret", "bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/cb", BearerSecret(tt.secret), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/cb", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}
