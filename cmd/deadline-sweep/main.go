package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"journal-management-api/config"
	"journal-management-api/services"

	"github.com/joho/godotenv"
)

// One-shot deadline sweep for cron. The engine owns no clock thread; schedule
// this binary (or the admin endpoint) at the desired interval.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ReloadMailerConfig()
	config.InitDB()

	var batchSize int
	flag.IntVar(&batchSize, "batch-size", 0, "invitations fetched per query (optional)")
	flag.Parse()

	if batchSize < 0 {
		log.Fatal("batch-size must be greater than or equal to 0")
	}

	job := services.NewDeadlineSweepJobService(nil)
	if batchSize > 0 {
		job.SetBatchSize(batchSize)
	}

	summary, err := job.Run(context.Background(), "cron")
	if err != nil {
		log.Fatalf("deadline sweep failed: %v", err)
	}

	fmt.Printf("Reminders sent: %d\n", summary.Reminded)
	fmt.Printf("Invitations withdrawn: %d\n", summary.Withdrawn)
	fmt.Printf("Overdue reviews: %d\n", summary.Overdue)
	fmt.Printf("Failures: %d\n", len(summary.Failures))
	for _, failure := range summary.Failures {
		fmt.Printf("  invitation %d (%s): %s\n", failure.InvitationID, failure.Stage, failure.Error)
	}

	if len(summary.Failures) > 0 {
		os.Exit(2)
	}
}
