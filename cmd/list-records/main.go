package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records"
)

func main() {
	sessionID := flag.String("session", "", "only print records of this session")
	kind := flag.String("kind", "", "only print records of this kind")
	verbose := flag.Bool("v", false, "print record payloads")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	// Set up Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)
	defer client.Close()

	// Test connection
	if _, pingErr := client.Ping(ctx).Result(); pingErr != nil {
		log.Fatalf("Failed to connect to Redis: %v", pingErr)
	}

	repo := records.NewRedis(client, nil)

	sessions := []string{*sessionID}
	if *sessionID == "" {
		sessions, err = repo.ListSessions(ctx)
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
	}

	fmt.Printf("Found %d sessions:\n", len(sessions))
	for _, id := range sessions {
		recs, listErr := repo.ListBySession(ctx, id)
		if listErr != nil {
			fmt.Printf("  %s: ERROR - %v\n", id, listErr)
			continue
		}

		fmt.Printf("  %s: %d records\n", id, len(recs))
		for _, rec := range recs {
			if *kind != "" && string(rec.Kind) != *kind {
				continue
			}
			printRecord(rec, *verbose)
		}
	}
}

func printRecord(rec *events.Record, verbose bool) {
	fmt.Printf("    %s  %-16s %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Kind, rec.ID)
	if !verbose {
		return
	}

	var payload any
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		fmt.Printf("      (undecodable payload: %v)\n", err)
		return
	}
	data, _ := json.MarshalIndent(payload, "      ", "  ")
	fmt.Printf("      %s\n", data)
}
