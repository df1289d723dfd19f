package api

import (
	"net/http"
	"time"

	"dream100/prospect-intel-worker/internal/api/controllers"
	"dream100/prospect-intel-worker/internal/api/middleware"
	"dream100/prospect-intel-worker/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// ServiceName is reported by the health check
const ServiceName = "prospect-intel-worker"

// RouterConfig carries everything the HTTP layer is wired to
type RouterConfig struct {
	Coordinator *services.Coordinator
	Forwarder   controllers.Forwarder
	Sessions    *middleware.SessionManager
	// Dashboard credentials
	Username string
	Password string
	// CallbackSecret, when set, is required as a bearer token on /api/callback
	CallbackSecret string
	PublicURL      string
	CORSOrigins    []string
	Logger         *zap.Logger
}

// NewRouter creates and configures a new Gin router
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Coordinator == nil {
		return nil, eris.New("router: coordinator is required")
	}
	if cfg.Sessions == nil {
		return nil, eris.New("router: session manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger.Named("http")))
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	router.SetHTMLTemplate(controllers.DashboardTemplates())

	prospectController := controllers.NewProspectController(cfg.Coordinator, cfg.PublicURL)
	callbackController := controllers.NewCallbackController(cfg.Coordinator)
	dashboardController := controllers.NewDashboardController(cfg.Sessions, cfg.Username, cfg.Password)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": ServiceName,
		})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/login", dashboardController.LoginPage)
	router.POST("/login", dashboardController.Login)
	router.GET("/logout", dashboardController.Logout)
	router.GET("/", cfg.Sessions.RequireSession(), dashboardController.Index)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/submit", prospectController.Submit)
		apiGroup.POST("/process/:mode", prospectController.Process)
		apiGroup.GET("/status/:job_id", prospectController.Status)
		apiGroup.POST("/callback", middleware.BearerSecret(cfg.CallbackSecret), callbackController.Callback)

		if cfg.Forwarder != nil {
			forwardController := controllers.NewForwardController(cfg.Forwarder)
			apiGroup.POST("/send/:mode", forwardController.Send)
			apiGroup.POST("/forward/batch", forwardController.ForwardBatch)
		}
	}

	return router, nil
}
