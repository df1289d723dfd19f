package controllers

import (
	"crypto/subtle"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"dream100/prospect-intel-worker/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardTemplates parses the embedded dashboard pages for gin's HTML renderer
func DashboardTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// DashboardController serves the login-gated upload page
type DashboardController struct {
	sessions *middleware.SessionManager
	username string
	password string
	logger   *zap.Logger
}

// NewDashboardController creates a new DashboardController instance
func NewDashboardController(sessions *middleware.SessionManager, username, password string) *DashboardController {
	return &DashboardController{
		sessions: sessions,
		username: username,
		password: password,
		logger:   zap.L().Named("DashboardController"),
	}
}

// LoginPage renders the login form, or sends a signed-in user to the dashboard
func (ctrl *DashboardController) LoginPage(c *gin.Context) {
	if _, ok := ctrl.sessions.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{"Username": ""})
}

// Login checks the submitted credentials and starts a session
func (ctrl *DashboardController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if !ctrl.validCredentials(username, password) {
		ctrl.logger.Warn("failed login", zap.String("username", username), zap.String("client_ip", c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Error":    "Invalid username or password",
			"Username": username,
		})
		return
	}

	if err := ctrl.sessions.Login(c, username); err != nil {
		ctrl.logger.Error("failed to start session", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "Could not sign in, try again", "Username": username})
		return
	}
	ctrl.logger.Info("login", zap.String("username", username))
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout ends the session
func (ctrl *DashboardController) Logout(c *gin.Context) {
	ctrl.sessions.Logout(c)
	c.Redirect(http.StatusFound, "/login")
}

// Index renders the dashboard
func (ctrl *DashboardController) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Username": middleware.Username(c),
	})
}

// validCredentials compares both fields in constant time. An unset password never matches.
func (ctrl *DashboardController) validCredentials(username, password string) bool {
	if ctrl.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(ctrl.username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(ctrl.password))
	return userOK&passOK == 1
}
