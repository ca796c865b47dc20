// One-shot backfill: creates folders for deals the webhook never delivered.
// Intended to run from cron or a scheduled task.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/techlab-live/zoho-drive-bridge/internal/app"
	"github.com/techlab-live/zoho-drive-bridge/internal/poller"
)

func main() {
	godotenv.Load()

	ctx := context.Background()
	svcs, err := app.NewServices(ctx)
	if err != nil {
		log.Fatalf("unable to initialize services: %v", err)
	}

	p := poller.New(svcs.CRM, svcs.Processor, svcs.Config.DriveLinkField)
	processed, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("polling pass failed: %v", err)
	}
	log.Printf("done, processed %d deals", processed)
}
