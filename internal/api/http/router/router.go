package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/docchat-server/internal/api/http/handler"
	"github.com/dtroode/docchat-server/internal/api/http/middleware"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/metrics"
	"github.com/dtroode/docchat-server/internal/model"
)

// Options tunes request limits.
type Options struct {
	RateLimitRPM   int
	MaxUploadBytes int64
}

// Router wires HTTP routes to handlers and middleware.
type Router struct {
	authService    handler.AuthService
	sessionService handler.SessionService
	chatService    handler.ChatService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	database       handler.Pinger
	metrics        *metrics.Metrics
	opts           Options
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService handler.AuthService,
	sessionService handler.SessionService,
	chatService handler.ChatService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	database handler.Pinger,
	metrics *metrics.Metrics,
	opts Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		sessionService: sessionService,
		chatService:    chatService,
		tokenService:   tokenService,
		contextManager: contextManager,
		database:       database,
		metrics:        metrics,
		opts:           opts,
		logger:         logger,
	}
}

// Register builds the engine with all routes.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.CustomRecovery(r.recover),
		middleware.NewLogging(r.logger).Handler(),
		middleware.Metrics(r.metrics),
		middleware.NewRateLimiter(r.opts.RateLimitRPM).Handler(),
	)

	r.registerAuthRoutes(engine)
	r.registerChatRoutes(engine)
	r.registerOperationalRoutes(engine)

	return engine
}

func (r *Router) registerAuthRoutes(engine *gin.Engine) {
	auth := handler.NewAuth(r.authService, r.sessionService, r.metrics, r.logger)

	engine.POST("/signup", auth.Signup)
	engine.POST("/verify-otp", auth.VerifyOTP)
	engine.POST("/otpVerificationRoute", auth.VerifyOTP)
	engine.POST("/resend-otp", auth.ResendOTP)
	engine.POST("/login", auth.Login)
	engine.POST("/refresh", auth.Refresh)
	engine.POST("/logout", auth.Logout)
}

func (r *Router) registerChatRoutes(engine *gin.Engine) {
	chat := handler.NewChat(r.chatService, r.contextManager, r.opts.MaxUploadBytes, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	private := engine.Group("/", authenticate.Handler())
	private.POST("/upload", chat.Upload)
	private.POST("/ask", chat.Ask)
	private.GET("/documents", chat.Documents)
}

func (r *Router) registerOperationalRoutes(engine *gin.Engine) {
	health := handler.NewHealth(r.database, r.logger)

	engine.GET("/healthz/liveness", health.Liveness)
	engine.GET("/healthz/readiness", health.Readiness)
	engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
}

func (r *Router) recover(c *gin.Context, recovered any) {
	r.logger.Error("HTTP router: handler panicked",
		"path", c.Request.URL.Path,
		"panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
}
