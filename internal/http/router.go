package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studyforge/curriculum-backend/internal/http/handlers"
	"github.com/studyforge/curriculum-backend/internal/platform/envutil"
)

// NewRouter wires the read-only API. The engine has no auth surface: store
// credential concerns live with the deployment, not this service.
func NewRouter(health *handlers.HealthHandler, subjects *handlers.SubjectHandler, runs *handlers.RunHandler) *gin.Engine {
	if strings.EqualFold(envutil.String("GIN_MODE", ""), "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// otelgin.Middleware slots in here once a trace backend exists.

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ",")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", health.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/subjects", subjects.ListSubjects)
		api.GET("/subjects/:id/tree", subjects.GetSubjectTree)
		api.GET("/subjects/:id/report", subjects.GetSubjectReport)
		api.GET("/runs", runs.ListRuns)
	}
	return r
}
