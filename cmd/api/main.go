package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"academymsg/internal/config"
	"academymsg/internal/handler"
	"academymsg/internal/middleware"
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

	if !cfg.IsProviderConfigured() {
		log.Println("⚠️  Provider credentials missing: transmissions will fail until PROVIDER_API_KEY and PROVIDER_API_SECRET are set")
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

	// Initialize repositories
	purposeRepo := repository.NewPurposeRepository(db)
	logRepo := repository.NewMessageLogRepository(db)

	// Initialize services
	gateway := provider.NewClient(cfg.Provider)
	purposeSvc := service.NewPurposeService(purposeRepo)
	templateSvc := service.NewTemplateService(cfg.Provider.SenderNumber)
	sizerSvc := service.NewSizerService()
	dispatchSvc := service.NewDispatchService(purposeSvc, templateSvc, sizerSvc, logRepo, gateway, service.DispatchOptions{
		SenderNumber:   cfg.Provider.SenderNumber,
		DefaultSubject: cfg.Dispatch.DefaultSubject,
	})
	batchSvc := service.NewBatchService(dispatchSvc, purposeSvc, logRepo, publisher, cfg.Dispatch.WorkerCount)
	logSvc := service.NewMessageLogService(logRepo)
	log.Println("✅ Services initialized")

	// Initialize handlers
	dispatchHandler := handler.NewDispatchHandler(dispatchSvc, batchSvc)
	purposeHandler := handler.NewPurposeHandler(purposeSvc)
	logHandler := handler.NewLogHandler(logSvc)

	// Create router
	router := mux.NewRouter()
	router.Use(middleware.Recovery)

	// Health endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connection
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"disconnected"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"connected"}`))
	}).Methods("GET")

	// Message dispatch endpoints
	router.HandleFunc("/messages/send", dispatchHandler.Send).Methods("POST")
	router.HandleFunc("/messages/batch", dispatchHandler.SendBatch).Methods("POST")
	router.HandleFunc("/messages/scheduled/{id}", dispatchHandler.CancelScheduled).Methods("DELETE")

	// Purpose management endpoints
	router.HandleFunc("/purposes", purposeHandler.Create).Methods("POST")
	router.HandleFunc("/purposes", purposeHandler.List).Methods("GET")
	router.HandleFunc("/purposes/{code}", purposeHandler.Get).Methods("GET")
	router.HandleFunc("/purposes/{code}", purposeHandler.Update).Methods("PUT")
	router.HandleFunc("/purposes/{code}/toggle", purposeHandler.ToggleActive).Methods("POST")

	// Message log endpoints
	router.HandleFunc("/message-logs", logHandler.List).Methods("GET")
	router.HandleFunc("/message-logs/statistics", logHandler.Statistics).Methods("GET")
	router.HandleFunc("/message-logs/batch/{batchId}", logHandler.GetBatch).Methods("GET")
	router.HandleFunc("/message-logs/provider/{providerMessageId}", logHandler.GetByProviderMessageID).Methods("GET")
	router.HandleFunc("/message-logs/ref/{refType}/{refId}", logHandler.GetByReference).Methods("GET")
	router.HandleFunc("/message-logs/{id}", logHandler.Get).Methods("GET")

	// Start server
	port := ":" + cfg.Server.Port
	log.Printf("🚀 API Server starting on port %s", port)
	log.Printf("📍 Health check: http://localhost%s/health", port)
	log.Printf("🌍 Environment: %s", cfg.Env)

	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
