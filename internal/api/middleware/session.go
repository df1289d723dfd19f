package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the signed dashboard session
	SessionCookie     = "dream100_session"
	sessionIssuer     = "prospect-intel-worker"
	usernameKey       = "username"
	defaultSessionTTL = 12 * time.Hour
)

// SessionManager issues and verifies HS256 session tokens stored in an HttpOnly cookie
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	parser *jwt.Parser
	logger *zap.Logger
}

// NewSessionManager creates a SessionManager; secure marks the cookie HTTPS-only
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if secret == "" {
		return nil, eris.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		parser: jwt.NewParser(
			jwt.WithIssuer(sessionIssuer),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
		),
		logger: zap.L().Named("SessionManager"),
	}, nil
}

// Issue signs a session token for username
func (m *SessionManager) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", eris.Wrap(err, "failed to sign session")
	}
	return token, nil
}

// Verify returns the username of a valid session token
func (m *SessionManager) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", eris.New("session missing subject")
	}
	return claims.Subject, nil
}

// Login issues a session for username and sets the cookie
func (m *SessionManager) Login(c *gin.Context, username string) error {
	token, err := m.Issue(username)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Logout clears the session cookie
func (m *SessionManager) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", m.secure, true)
}

// CurrentUser returns the username of the request's valid session, if any
func (m *SessionManager) CurrentUser(c *gin.Context) (string, bool) {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return "", false
	}
	username, err := m.Verify(token)
	if err != nil {
		m.logger.Debug("invalid session", zap.String("path", c.Request.URL.Path), zap.Error(err))
		return "", false
	}
	return username, true
}

// RequireSession redirects requests without a valid session to /login
func (m *SessionManager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := m.CurrentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(usernameKey, username)
		c.Next()
	}
}

// Username returns the user set by RequireSession
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
