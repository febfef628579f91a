package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridforge/microgrid-planner/config"
	"github.com/gridforge/microgrid-planner/sizing"
)

// IrradianceProvider fetches the twelve-month GHI climatology for a point.
type IrradianceProvider interface {
	MonthlyGHI(ctx context.Context, lat, lon float64) (sizing.MonthlySeries, error)
}

// SeriesCache memoizes fetched climatologies by rounded coordinates. Lookup
// returns nil on a miss. Implementations are best-effort; the server never
// fails a request on a cache error.
type SeriesCache interface {
	Lookup(ctx context.Context, latKey, lonKey float64) (*sizing.MonthlySeries, error)
	Save(ctx context.Context, latKey, lonKey float64, series sizing.MonthlySeries) error
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	provider IrradianceProvider
	cache    SeriesCache // may be nil
	engine   *gin.Engine
}

// New constructs a server with routes and middleware. cache may be nil to run
// without memoization.
func New(cfg config.Config, provider IrradianceProvider, cache SeriesCache) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, provider: provider, cache: cache, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	if s.cfg.BearerToken != "" {
		v1.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}
	v1.GET("/plan", s.handlePlan)
	v1.GET("/assumptions", s.handleAssumptions)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// handleAssumptions exposes the baseline assumption set so callers can see
// the constants behind a plan.
// GET /api/v1/assumptions
func (s *Server) handleAssumptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assumptions": sizing.Default()})
}
