package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/marks"
	"rollcall/internal/queue"
	"rollcall/internal/schedule"
	"rollcall/internal/store"
)

// Worker consumes recalc messages and calls the aggregation collaborator so
// downstream grade totals stay consistent after bulk mutations.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:recalc")
	}

	sched := schedule.New(cfg.ScheduleServiceURL, cfg.ScheduleStub)
	if !cfg.ScheduleStub {
		if err := sched.Health(ctx); err != nil {
			log.Printf("WARNING: schedule service not available: %v", err)
			log.Println("Worker will retry recalculation when messages arrive")
		} else {
			log.Println("Schedule service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != marks.MsgRecalc {
			continue
		}

		lectureID := string(msg.Body)
		log.Printf("recalculating lecture %s", lectureID)

		if err := sched.Recalculate(ctx, lectureID); err != nil {
			// Recalculate is idempotent on the far side; the next bulk
			// mutation enqueues this lecture again.
			log.Printf("recalculate %s failed: %v", lectureID, err)
			continue
		}
		log.Printf("recalculated lecture %s", lectureID)
	}
	log.Println("worker stopped")
}
