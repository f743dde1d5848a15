package routes

import (
	"ledger-api/internal/api/handlers"
	"ledger-api/internal/api/middleware"
	"ledger-api/internal/config"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every HTTP route onto router, using container for
// handler dependencies and cfg for the middleware that needs configuration
// (CORS origins, rate-limit window).
func RegisterRoutes(router *gin.Engine, container handlers.HandlerDependencies, cfg *config.Config) {
	router.Use(middleware.RequestContext())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimit(cfg))
	router.Use(middleware.Metrics())
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.EventPublisherMiddleware(container.GetEventPublisher()))

	router.POST("/profiles", handlers.MakeCreateProfileHandler(container))
	router.POST("/profiles/:id/books", handlers.MakeCreateBookHandler(container))
	router.POST("/books/:id/groups", handlers.MakeCreateGroupHandler(container))
	router.POST("/groups/:id/accounts", handlers.MakeCreateAccountHandler(container))
	router.POST("/books/:id/transactions", handlers.MakeCreateTransactionHandler(container))
	router.POST("/books/:id/transactions/async", handlers.MakeQueueTransactionHandler(container))
	router.GET("/accounts/:id/balances", handlers.MakeGetBalancesHandler(container))

	router.GET("/metrics", handlers.GetMetrics)
	router.GET("/prometheus", handlers.PrometheusMetrics)
	router.GET("/events", handlers.Events)
}
