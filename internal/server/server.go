package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"anoa.com/communitywealth/internal/bootstrap"
	rankingHttp "anoa.com/communitywealth/internal/modules/ranking/delivery/http"
	ranking "anoa.com/communitywealth/internal/modules/ranking/service"
	statusHttp "anoa.com/communitywealth/internal/modules/status/delivery/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	engine *gin.Engine
	runner *ranking.Runner
	http   *http.Server
}

func NewServer(app *bootstrap.App) *Server {
	cfg := app.Config

	runner := ranking.NewRunner(app.Service, app.Redis, cfg.SearchCooldown)
	rankingHandler := rankingHttp.NewRankingHandler(app.Service, runner, app.Latest)
	statusHandler := statusHttp.NewStatusHandler(app.Latest, app.Broadcaster, app.Redis)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health", "/api/status"},
	}))
	router.SetHTMLTemplate(rankingHttp.Templates())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", rankingHandler.Index)

	api := router.Group("/api")
	{
		rankings := api.Group("/rankings")
		rankings.POST("/search", rankingHandler.Search)
		rankings.POST("/refresh", rankingHandler.Refresh)
		rankings.GET("/latest", rankingHandler.GetLatest)
		rankings.GET("/history", rankingHandler.GetHistory)
		rankings.GET("/history/:id", rankingHandler.GetRun)
		rankings.GET("/search-index", rankingHandler.SearchMembers)

		api.GET("/status", statusHandler.GetStatus)
		api.GET("/status/ws", statusHandler.HandleWebSocket)
	}

	return &Server{
		engine: router,
		runner: runner,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Runner exposes the background runner so scheduled jobs share its coalescing.
func (s *Server) Runner() *ranking.Runner {
	return s.runner
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	s.http.Addr = addr
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and cancels in-flight runs.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.runner.Shutdown(ctx); err != nil {
		log.Printf("Runs still in flight at shutdown: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
