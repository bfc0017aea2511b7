package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"academymsg/internal/config"
	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Command-line flags
var (
	clearData = flag.Bool("clear", false, "Clear existing seed data before inserting")
	showHelp  = flag.Bool("help", false, "Show usage information")
)

func main() {
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== Academy Messaging Database Seeder ===\n")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}

	// Connect to database
	printInfo("Connecting to database...")
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		printError(fmt.Sprintf("Failed to open database connection: %v", err))
		os.Exit(1)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		printError(fmt.Sprintf("Failed to ping database: %v", err))
		os.Exit(1)
	}
	printSuccess("✓ Connected to database\n")

	// Clear data if requested
	if *clearData {
		if err := clearSeedData(db); err != nil {
			printError(fmt.Sprintf("Failed to clear seed data: %v", err))
			os.Exit(1)
		}
	}

	// Seed purposes through the repository so model validation applies
	created, skipped, err := seedPurposes(db)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed purposes: %v", err))
		os.Exit(1)
	}

	// Print summary
	printInfo("\n=== Seeding Summary ===")
	printSuccess(fmt.Sprintf("✓ Purposes created: %d", created))
	if skipped > 0 {
		printWarning(fmt.Sprintf("- Purposes skipped (already present): %d", skipped))
	}
	printInfo("\nSeeding completed successfully!")
}

// clearSeedData removes existing seed data
func clearSeedData(db *sql.DB) error {
	printWarning("Clearing existing seed data...")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Logs reference purposes, so remove them first
	_, err = tx.Exec("DELETE FROM message_logs WHERE purpose_code IN ('CLASS_REMINDER', 'MONTHLY_REPORT', 'PAYMENT_NOTICE', 'STAFF_ALERT')")
	if err != nil {
		return fmt.Errorf("failed to delete message logs: %w", err)
	}

	_, err = tx.Exec("DELETE FROM message_purposes WHERE code IN ('CLASS_REMINDER', 'MONTHLY_REPORT', 'PAYMENT_NOTICE', 'STAFF_ALERT')")
	if err != nil {
		return fmt.Errorf("failed to delete purposes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	printSuccess("✓ Existing seed data cleared\n")
	return nil
}

// seedPurposes inserts the demo purpose set, skipping codes that exist
func seedPurposes(db *sql.DB) (int, int, error) {
	printInfo("Seeding message purposes...")

	repo := repository.NewPurposeRepository(db)
	ctx := context.Background()

	created := 0
	skipped := 0

	for _, purpose := range demoPurposes() {
		if err := purpose.Validate(); err != nil {
			return created, skipped, fmt.Errorf("invalid seed purpose %s: %w", purpose.Code, err)
		}

		err := repo.Create(ctx, purpose)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("failed to create purpose %s: %w", purpose.Code, err)
		}

		printSuccess(fmt.Sprintf("  ✓ Created purpose %s (%s)", purpose.Code, purpose.DefaultChannel))
		created++
	}

	return created, skipped, nil
}

// demoPurposes returns one purpose per channel plus a staff alert
func demoPurposes() []*models.Purpose {
	longSubject := "[Academy] Monthly progress report"
	paySubject := "[Academy] Tuition payment notice"
	payTemplate := "KT_PAY_001"
	payBody := "[Academy] {guardianName}, tuition of {amount} KRW for {studentName} is due on {dueDate}. Contact: {contactNumber}"
	reportBody := "[Academy] {currentDate} progress report for {studentName}\n\n" +
		"Attendance: {attendanceRate}%\nHomework: {homeworkRate}%\n\n" +
		"Teacher note: {teacherNote}\n\nContact us at {contactNumber}."
	fallback := models.ChannelLongText

	return []*models.Purpose{
		{
			Code:             "CLASS_REMINDER",
			Name:             "Class reminder",
			TargetAudience:   models.TargetAudienceUser,
			DefaultChannel:   models.ChannelShortText,
			ShortTemplate:    strPtr("[Academy] {studentName}, your {className} class starts at {startTime}. Questions? {contactNumber}"),
			IsActive:         true,
			IsBatchAvailable: true,
		},
		{
			Code:             "MONTHLY_REPORT",
			Name:             "Monthly progress report",
			TargetAudience:   models.TargetAudienceUser,
			DefaultChannel:   models.ChannelLongText,
			LongTemplate:     &reportBody,
			LongSubject:      &longSubject,
			IsActive:         true,
			IsBatchAvailable: true,
		},
		{
			Code:             "PAYMENT_NOTICE",
			Name:             "Tuition payment notice",
			TargetAudience:   models.TargetAudienceUser,
			DefaultChannel:   models.ChannelChatTemplate,
			LongTemplate:     &payBody,
			LongSubject:      &paySubject,
			ChatTemplateCode: &payTemplate,
			IsActive:         true,
			FallbackChannel:  &fallback,
		},
		{
			Code:           "STAFF_ALERT",
			Name:           "Staff operational alert",
			TargetAudience: models.TargetAudienceAdmin,
			DefaultChannel: models.ChannelShortText,
			ShortTemplate:  strPtr("[Ops] {alertMessage} ({currentDateTime})"),
			IsActive:       true,
		},
	}
}

func strPtr(s string) *string {
	return &s
}

func printUsage() {
	fmt.Println("Usage: go run ./scripts/seed [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// Helper functions for colored output

func printSuccess(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
}

func printWarning(msg string) {
	fmt.Printf("%s%s%s\n", colorYellow, msg, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorCyan, msg, colorReset)
}
