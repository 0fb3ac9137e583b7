package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medadhere/internal/config"
	"medadhere/internal/database"
	"medadhere/internal/device"
	"medadhere/internal/fhir"
	httpapi "medadhere/internal/http"
	"medadhere/internal/logger"
	"medadhere/internal/monitor"
	"medadhere/internal/mqtt"
	"medadhere/internal/repository"
	"medadhere/internal/service"
	"medadhere/internal/store"
	"medadhere/internal/vitals"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "medadhere")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据库不可用时退回内存仓储，服务照常运行
	var (
		db            *sql.DB
		vitalsRepo    repository.VitalsRepository
		schedulesRepo repository.SchedulesRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			if err := database.EnsureSchema(ctx, d); err != nil {
				lg.Warn("Failed to ensure schema, falling back to memory repositories", zap.Error(err))
				_ = database.Close(d)
			} else {
				db = d
				lg.Info("DB enabled for medadhere", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
			}
		} else {
			lg.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		defer database.Close(db)
		vitalsRepo = repository.NewPostgresVitalsRepository(db)
		schedulesRepo = repository.NewPostgresSchedulesRepository(db)
	} else {
		vitalsRepo = repository.NewMemoryVitalsRepository()
		schedulesRepo = repository.NewMemorySchedulesRepository()
	}

	deviceID := cfg.Device.ID
	if deviceID == "" {
		deviceID = cfg.Device.Address
	}
	vitalsSvc := service.NewVitalsService(vitalsRepo, deviceID, lg)
	scheduleSvc := service.NewScheduleService(schedulesRepo, lg)

	reader := device.NewReader(cfg.Device.Address, cfg.Device.Timeout, lg)
	mon := monitor.New(reader, vitals.NewSimulator(nil), monitor.Options{
		Interval:    cfg.Monitor.Interval,
		HistorySize: cfg.Monitor.HistorySize,
		Simulation:  cfg.Monitor.Simulation,
		DeviceID:    deviceID,
	}, lg)

	autoSave := monitor.NewAutoSaver(vitalsSvc, cfg.Monitor.AutoSave, lg)
	mon.Subscribe(autoSave)

	var latest httpapi.LatestReader
	if cfg.Redis.Enabled {
		redisClient := store.NewRedisClient(&cfg.Redis)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := store.Ping(pingCtx, redisClient)
		pingCancel()
		if err != nil {
			lg.Warn("Redis enabled but unreachable, latest-sample cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = redisClient.Close()
		} else {
			defer redisClient.Close()
			cache := store.NewVitalsCache(redisClient, lg)
			mon.Subscribe(cache)
			latest = cache
			lg.Info("Redis latest-sample cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	health := map[string]func() bool{}
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, lg)
		if err != nil {
			lg.Warn("MQTT enabled but connection failed, sample publishing disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
			mon.Subscribe(mqtt.NewVitalsPublisher(mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS, lg))
			health["mqtt"] = mqttClient.IsConnected
			lg.Info("MQTT sample publishing enabled", zap.String("topic", cfg.MQTT.Topic))
		}
	}

	router := httpapi.NewRouter(httpapi.Handlers{
		Arduino:   httpapi.NewArduinoHandler(reader, lg),
		FHIR:      httpapi.NewFHIRHandler(fhir.NewClient(cfg.FHIR.BaseURL, cfg.FHIR.Timeout, lg), lg),
		Monitor:   httpapi.NewMonitorHandler(mon, autoSave, latest, lg),
		Vitals:    httpapi.NewVitalsHandler(vitalsSvc, lg),
		Schedules: httpapi.NewScheduleHandler(scheduleSvc, lg),
		Health:    health,
	}, lg)

	if cfg.Monitor.AutoStart {
		if err := mon.Start(cfg.Monitor.OwnerID); err != nil {
			lg.Error("Failed to auto-start vitals monitor", zap.Error(err))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, lg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		lg.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	mon.Stop()
	mon.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
