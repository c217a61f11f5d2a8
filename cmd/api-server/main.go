package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"scentdb/internal/auth"
	"scentdb/internal/catalog"
	"scentdb/internal/monitor"
	"scentdb/internal/pipeline"
	"scentdb/internal/repair"
	"scentdb/internal/scoring"
	"scentdb/internal/source"
	"scentdb/internal/store"
	"scentdb/internal/validate"
	"scentdb/pkg/config"
	"scentdb/pkg/database"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	apiCfg := config.LoadAPI()

	cfgPath := os.Getenv("SCENTDB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/scoring.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Run monitoring feed
	hub := monitor.NewHub()
	router.GET("/ws", monitor.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
				"clients":  stats.Clients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"db":      "ok",
			"clients": stats.Clients,
		})
	})

	// Catalog (public)
	s := store.New(db)
	catalog.NewHandler(s).RegisterRoutes(router.Group("/catalog"))

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(apiCfg.JWTSecret),
		Issuer:   apiCfg.JWTIssuer,
		Duration: apiCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokenSvc, apiCfg.InviteCode).RegisterRoutes(router.Group("/auth"))

	// Operator routes: trigger runs and repairs
	runner := pipeline.NewRunner(s, scoring.NewContext(cfg.Scoring), validate.NewContext(cfg.Validation), cfg.Import.BatchSize)
	runner.Events = hub

	ops := router.Group("/ops")
	ops.Use(auth.Middleware(tokenSvc, authRepo))

	ops.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
		})
	})

	ops.POST("/runs", triggerRun(runner))
	ops.POST("/repair", func(c *gin.Context) {
		report, err := repair.Run(c.Request.Context(), s)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	httpSrv := &http.Server{
		Addr:    apiCfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", apiCfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}

type runReq struct {
	ArchiveURL string `json:"archive_url"`
	KagglePath string `json:"kaggle_path"`
	JSONPath   string `json:"json_path"`
}

// triggerRun starts a pipeline run in the background; progress
// streams over /ws and the summary lands in /catalog/runs.
func triggerRun(runner *pipeline.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req runReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		var sources []source.Source
		if req.ArchiveURL != "" {
			sources = append(sources, source.NewArchive(req.ArchiveURL))
		}
		if req.KagglePath != "" {
			sources = append(sources, source.NewKaggleCSV(req.KagglePath))
		}
		if req.JSONPath != "" {
			sources = append(sources, source.NewJSONFile(req.JSONPath))
		}
		if len(sources) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no sources given"})
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			r := *runner
			r.Collector = source.NewCollector(sources...)
			if _, err := r.Run(ctx); err != nil {
				log.Printf("[ops] pipeline run failed: %v", err)
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"status": "run started"})
	}
}
