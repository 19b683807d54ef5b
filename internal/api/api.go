package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/ecsync/internal/api/handlers"
	"github.com/andresuchdata/ecsync/internal/api/middleware"
	"github.com/andresuchdata/ecsync/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services are the read services exposed over HTTP. Nil services leave
// their routes unregistered.
type Services struct {
	DashboardService *service.DashboardService
	StatusService    *service.StatusService
}

var defaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(), middleware.Recovery(), cors.New(corsPolicy(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services == nil {
		return router
	}

	v1 := router.Group("/api/v1")
	if services.DashboardService != nil {
		h := handlers.NewDashboardHandler(services.DashboardService)
		dashboard := v1.Group("/dashboard")
		dashboard.GET("", h.GetLatest)
		dashboard.GET("/dates", h.GetAvailableDates)
		dashboard.GET("/:date", h.GetByDate)
	}
	if services.StatusService != nil {
		v1.GET("/status", handlers.NewStatusHandler(services.StatusService).GetStatus)
	}

	return router
}

// corsPolicy allows read-only access from the configured origins, or from
// local dev servers when none are configured. "*" allows any origin but
// never with credentials.
func corsPolicy(allowedOrigins []string) cors.Config {
	policy := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins, allowAll := normalizeAllowedOrigins(allowedOrigins)
	switch {
	case allowAll:
		policy.AllowOrigins = nil
		policy.AllowOriginFunc = func(string) bool { return true }
		policy.AllowCredentials = false
	case len(origins) > 0:
		policy.AllowOrigins = origins
	}
	return policy
}

// normalizeAllowedOrigins flattens comma separated entries and reports
// whether a wildcard was present.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			switch trimmed := strings.TrimSpace(part); trimmed {
			case "":
			case "*":
				allowAll = true
			default:
				parsed = append(parsed, trimmed)
			}
		}
	}
	return parsed, allowAll
}
