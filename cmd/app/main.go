package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskbot/internal/bot"
	"taskbot/internal/config"
	"taskbot/internal/db"
	httpServer "taskbot/internal/http"
	"taskbot/internal/logger"
	"taskbot/internal/ratelimit"
	"taskbot/internal/repository"
	"taskbot/internal/scheduler"
	"taskbot/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	taskRepo := repository.NewTaskRepository(dbPool)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := taskRepo.EnsureSchema(initCtx); err != nil {
		logger.Fatal("failed to initialize task store", "error", err)
	}
	initCancel()

	tasks := service.NewTaskService(taskRepo, cfg.DueWindow)

	ratelimit.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	limiter := ratelimit.NewLimiter(cfg.CommandLimit, cfg.CommandWindow)

	taskBot, err := bot.New(cfg.BotToken, tasks, limiter)
	if err != nil {
		logger.Fatal("failed to create bot", "error", err)
	}
	go taskBot.Start()

	sched := scheduler.New(tasks, taskBot, scheduler.Config{
		WindowStart: cfg.ReminderStart,
		Debounce:    cfg.ReminderDebounce,
		Tick:        cfg.SchedulerTick,
	})

	schedCtx, stopSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(schedCtx)
	}()

	r := gin.Default()
	httpServer.RegisterRoutes(r, dbPool)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("ops server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	taskBot.Stop()

	stopSched()
	select {
	case <-schedDone:
	case <-time.After(10 * time.Second):
		logger.Warn("scheduler shutdown timeout")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("ops server forced to shutdown", "error", err)
	}

	logger.Info("shutdown complete")
}
