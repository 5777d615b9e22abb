package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"gymtrack/internal/config"
	"gymtrack/internal/logger"
	"gymtrack/internal/metrics"
	"gymtrack/internal/notify"
	"gymtrack/internal/queue"
	"gymtrack/internal/store"
	"gymtrack/internal/waha"
)

// The worker drains the notification queue and delivers messages over
// WhatsApp, keeping slow third-party sends off the API's request path.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		redisClient := store.NewRedis(cfg.RedisAddr)
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	wa := waha.New(cfg.WahaURL, cfg.WahaAPIKey, cfg.WahaSession)
	if wa.SessionStatus(ctx) {
		log.Info("whatsapp session connected", "url", cfg.WahaURL)
	} else {
		log.Warn("whatsapp session not ready, sends will be retried as jobs arrive", "url", cfg.WahaURL)
	}

	m := metrics.New("gymtrack_worker")
	hub := notify.NewHub(nil, nil, wa, q, log, m)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", "error", err)
	}

	log.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != notify.MsgTypeDispatch {
			continue
		}

		var job notify.Job
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Warn("malformed dispatch job dropped", "error", err)
			continue
		}

		if err := hub.Dispatch(ctx, job); err != nil {
			log.Warn("dispatch failed", "memberId", job.MemberID, "tipo", job.Tipo, "error", err)
			continue
		}
		log.Info("dispatched", "memberId", job.MemberID, "tipo", job.Tipo)
	}

	log.Info("worker stopped")
}
