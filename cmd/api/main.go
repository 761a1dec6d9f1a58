package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calllog"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/groups"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/routing"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Live routing state is in-memory; the process is the source of truth.
	agentDir := agents.NewDirectory()
	groupDir := groups.NewDirectory(agentDir)
	callStore := calls.NewStore()
	bus := notify.NewBus(log)

	// Telephony control plane. Without it the process still serves the
	// directory and console APIs; answer/hangup operations fail cleanly.
	var callClient telephony.CallClient
	if cfg.TelephonyConfigured() {
		endpoint, accessKey, err := config.ParseACSConnectionString(cfg.ACS.ConnectionString)
		if err != nil {
			log.Error("telephony config invalid", "err", err)
			os.Exit(1)
		}
		callClient, err = telephony.NewACSClient(endpoint, accessKey, cfg.ACS.RequestTimeout)
		if err != nil {
			log.Error("telephony init failed", "err", err)
			os.Exit(1)
		}
	}
	gateway := telephony.NewGateway(callClient, cfg.ACS.CallbackURL, log)

	// Optional durable call-log archive.
	api := &httpapi.API{
		Agents: agentDir,
		Groups: groupDir,
		Calls:  callStore,
		Auth:   authManager,
		Bus:    bus,
	}
	if cfg.ArchiveConfigured() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := calllog.NewPostgresRepo(db)
		if err := repo.Migrate(rootCtx); err != nil {
			log.Error("call log migration failed", "err", err)
			os.Exit(1)
		}
		api.Archive = calllog.NewService(repo, log)
		api.DB = db
	} else {
		api.Archive = calllog.NewService(calllog.NewMemoryRepo(), log)
	}

	router := routing.NewRouter(agentDir, groupDir, callStore, gateway, bus, log)
	router.Archive = api.Archive
	api.Router = router
	api.Reporting = reporting.NewService(agentDir, groupDir, callStore)

	// Optional Redis-backed webhook dedupe; falls back to in-process TTL map.
	var dedupe telephony.Deduper = telephony.NewMemoryDeduper()
	if cfg.Redis.Host != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		dedupe = telephony.NewRedisDeduper(rdb, log)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, api, router, dedupe, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"telephony", gateway.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
