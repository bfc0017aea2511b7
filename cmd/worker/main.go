package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"academymsg/internal/config"
	"academymsg/internal/provider"
	"academymsg/internal/queue"
	"academymsg/internal/repository"
	"academymsg/internal/service"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Verify database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to database")

	// Connect to RabbitMQ
	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	log.Println("✅ Connected to RabbitMQ")

	publisher, err := queue.NewPublisher(conn, cfg.Dispatch.QueueName)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	// Initialize repositories and services
	purposeRepo := repository.NewPurposeRepository(db)
	logRepo := repository.NewMessageLogRepository(db)

	gateway := provider.NewClient(cfg.Provider)
	purposeSvc := service.NewPurposeService(purposeRepo)
	templateSvc := service.NewTemplateService(cfg.Provider.SenderNumber)
	sizerSvc := service.NewSizerService()
	dispatchSvc := service.NewDispatchService(purposeSvc, templateSvc, sizerSvc, logRepo, gateway, service.DispatchOptions{
		SenderNumber:   cfg.Provider.SenderNumber,
		DefaultSubject: cfg.Dispatch.DefaultSubject,
	})
	batchSvc := service.NewBatchService(dispatchSvc, purposeSvc, logRepo, publisher, cfg.Dispatch.WorkerCount)
	log.Println("✅ Services initialized")

	// Start consumer for queued batch jobs
	handler := createDispatchHandler(logRepo, dispatchSvc)
	consumer, err := queue.NewConsumer(conn, cfg.Dispatch.QueueName, cfg.Dispatch.WorkerCount, handler)
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	log.Printf("✅ Worker started, consuming from queue: %s", cfg.Dispatch.QueueName)

	// Start scheduled-dispatch poller
	scheduler := cron.New()
	scheduler.Schedule(cron.Every(cfg.Dispatch.PollInterval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Dispatch.PollInterval)
		defer cancel()

		sent, err := batchSvc.RunDueScheduled(ctx, time.Now(), cfg.Dispatch.PollBatchSize)
		if err != nil {
			log.Printf("❌ Scheduled dispatch poll failed: %v", err)
			return
		}
		if sent > 0 {
			log.Printf("⏰ Scheduled dispatch poll transmitted %d message(s)", sent)
		}
	}))
	scheduler.Start()
	log.Printf("✅ Scheduled-dispatch poller running every %s", cfg.Dispatch.PollInterval)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	// Stop the poller and wait for a running poll to finish
	pollCtx := scheduler.Stop()
	<-pollCtx.Done()

	// Stop consumer
	if err := consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}

	// Close connections
	conn.Close()
	db.Close()

	log.Println("✅ Worker stopped")
}

// createDispatchHandler creates the queue job handler: it loads the
// pending log recorded at enqueue time and executes its transport half
func createDispatchHandler(logRepo repository.MessageLogRepository, dispatchSvc *service.DispatchService) queue.JobHandler {
	return func(job *queue.DispatchJob) error {
		ctx := context.Background()

		log.Printf("📨 Processing dispatch job: log=%d", job.LogID)

		logRow, err := logRepo.GetByID(ctx, job.LogID)
		if err != nil {
			log.Printf("❌ Failed to load message log %d: %v", job.LogID, err)
			return err
		}

		// A terminal row means the job was already handled (redelivery
		// after an ack was lost); drop it.
		if logRow.Status.IsTerminal() {
			log.Printf("⚠️  Message log %d already %s, skipping", logRow.ID, logRow.Status)
			return nil
		}

		if err := dispatchSvc.TransmitPending(ctx, logRow); err != nil {
			log.Printf("❌ Transmit failed for log %d: %v", logRow.ID, err)
			return err
		}

		log.Printf("✅ Dispatch job done: log=%d status=%s", logRow.ID, logRow.Status)
		return nil
	}
}
