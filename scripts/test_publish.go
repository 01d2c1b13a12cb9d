//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	auditStream = "stream:locality:audit"
	doneStream  = "stream:locality:audit:done"
)

type LocalityAuditEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	LocalityID string    `json:"locality_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	localityID := flag.String("locality", "loc-usa-0", "Locality ID from the catalog")
	name := flag.String("name", "", "Free point name (used with -lat/-lng)")
	lat := flag.Float64("lat", 0, "Free point latitude")
	lng := flag.Float64("lng", 0, "Free point longitude")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := LocalityAuditEvent{
		RequestID:  uuid.New(),
		LocalityID: *localityID,
	}
	if *name != "" {
		event.LocalityID = ""
		event.Name = *name
		event.Latitude = lat
		event.Longitude = lng
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: auditStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", auditStream)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Request ID: %s\n", event.RequestID)

	fmt.Printf("\nWaiting for response in %s...\n", doneStream)

	timeout := time.After(120 * time.Second)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("Timeout waiting for response")
			return
		case <-ticker.C:
			results, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{doneStream, "0"},
				Count:   100,
				Block:   -1,
			}).Result()
			if err != nil && err != redis.Nil {
				continue
			}

			for _, stream := range results {
				for _, msg := range stream.Messages {
					dataStr, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}

					var response map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &response); err != nil {
						continue
					}

					if id, ok := response["request_id"].(string); ok && id == event.RequestID.String() {
						fmt.Printf("\nResponse received\n")
						pretty, _ := json.MarshalIndent(response, "", "  ")
						fmt.Printf("%s\n", pretty)
						return
					}
				}
			}
		}
	}
}
