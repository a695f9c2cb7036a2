package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskmaster/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	labelHandler *handler.LabelHandler,
	jwtSecret string,
	sessions SessionChecker,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/login/google", authHandler.LoginGoogle)
	r.GET("/confirm", authHandler.Confirm)
	r.POST("/resend-confirmation", authHandler.ResendConfirmation)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret, sessions))
	{
		auth.GET("/me", authHandler.Me)
		auth.POST("/logout", authHandler.Logout)

		auth.GET("/tasks", taskHandler.GetTasks)
		auth.POST("/tasks", taskHandler.CreateTask)
		auth.PUT("/tasks/:id", taskHandler.UpdateTask)
		auth.POST("/tasks/:id/toggle", taskHandler.ToggleTask)
		auth.DELETE("/tasks/:id", taskHandler.DeleteTask)
		auth.DELETE("/subtasks/:id", taskHandler.DeleteSubtask)

		auth.GET("/labels", labelHandler.GetLabels)
		auth.POST("/labels", labelHandler.CreateLabel)
		auth.DELETE("/labels/:id", labelHandler.DeleteLabel)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
