package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"github.com/yungbote/finboard-backend/internal/config"
	"github.com/yungbote/finboard-backend/internal/datasync"
	"github.com/yungbote/finboard-backend/internal/db"
	"github.com/yungbote/finboard-backend/internal/handlers"
	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
	"github.com/yungbote/finboard-backend/internal/server"
	"github.com/yungbote/finboard-backend/internal/storage"
	"github.com/yungbote/finboard-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config file (env wins)
	cfgPath := utils.GetEnv("FINBOARD_CONFIG", "config.yaml", log)
	cfgFile, err := config.Load(cfgPath, log)
	if err != nil {
		log.Error("Could not load config file", "error", err)
		os.Exit(1)
	}
	cfgFile.ApplyEnv()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Snapshot store: Redis when configured, in-memory otherwise
	var kv storage.KV
	if os.Getenv("REDIS_ADDR") != "" {
		kv, err = storage.NewRedisKV(log)
		if err != nil {
			log.Error("Redis init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set, snapshots will not survive restarts")
		kv = storage.NewMemoryKV()
	}

	// Entity registry
	log.Info("Setting up entity registry...")
	reg, err := registry.NewGormRegistry(thePG, log)
	if err != nil {
		log.Error("Could not init entity registry", "error", err)
		os.Exit(1)
	}

	// Sync orchestrator
	log.Info("Setting up sync orchestrator...")
	syncCfg := datasync.ConfigFromEnv(log)
	orch := datasync.NewOrchestrator(syncCfg, reg, kv, log, datasync.WithOnlineProbe(onlineProbe(thePG, log)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	orch.Start(ctx)
	defer orch.Close()

	// Initial load happens in the background; the API serves cached
	// (possibly hydrated) data immediately.
	go orch.LoadAllData(ctx, false)

	// Handlers and router
	log.Info("Setting up handlers and router...")
	dataHandler := handlers.NewDataHandler(log, orch)
	syncHandler := handlers.NewSyncHandler(log, orch)
	router := server.NewRouter(server.RouterConfig{
		DataHandler: dataHandler,
		SyncHandler: syncHandler,
		CORSOrigins: cfgFile.Server.CORSOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

// onlineProbe samples network reachability once at startup. The env
// override exists for offline-hydration testing.
func onlineProbe(gdb *gorm.DB, log *logger.Logger) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		if utils.GetEnvAsBool("SYNC_FORCE_OFFLINE", false, log) {
			return false
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return false
		}
		return sqlDB.PingContext(ctx) == nil
	}
}
