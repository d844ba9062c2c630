package server

import (
	"net/http"

	"todo-list/backend/internal/config"
	"todo-list/backend/internal/handlers"
	"todo-list/backend/internal/middleware"
	"todo-list/backend/internal/monitoring"
	"todo-list/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const rootMessage = "To-Do List Backend Server is running."

type Dependencies struct {
	Config   *config.Config
	Todos    services.TodoService
	Auth     services.AuthService
	Register services.RegisterService
	Users    services.UserService
	Tokens   middleware.OwnerResolver
	Monitor  *monitoring.Monitor
	// Limiter is optional; nil leaves /api unthrottled.
	Limiter *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(gin.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	if deps.Monitor != nil {
		router.Use(deps.Monitor.Middleware())
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, rootMessage)
	})

	if deps.Monitor != nil {
		router.GET("/health", deps.Monitor.HealthHandler())
		router.GET("/health/ready", deps.Monitor.ReadinessHandler())
		router.GET("/health/live", deps.Monitor.LivenessHandler())
		router.GET("/metrics", deps.Monitor.MetricsHandler())
	}

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, handlers.CookieSettingsFrom(cfg.Auth))
	registerHandler := handlers.NewRegisterHandler(deps.Register)
	auth := api.Group("/auth")
	{
		auth.POST("/register", registerHandler.Registration)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.Authenticate(deps.Tokens, cfg.Auth.CookieName))

	userHandler := handlers.NewUserHandler(deps.Users)
	protected.GET("/user", userHandler.GetUserProfile)

	todoHandler := handlers.NewTodoHandler(deps.Todos)
	todos := protected.Group("/todos")
	{
		todos.GET("", todoHandler.ListTodos)
		todos.POST("", todoHandler.CreateTodo)
		todos.PUT("/:id", todoHandler.UpdateTodo)
		todos.DELETE("/:id", todoHandler.DeleteTodo)
	}

	return router
}
