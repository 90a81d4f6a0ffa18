package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func main() {
	targetURL := flag.String("url", "http://localhost:8080/events/purchase", "Target event endpoint")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 200, "Requests per second limit")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 50)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx)

					eventID := uuid.NewString()
					payload := fmt.Sprintf(`{
						"event_id": %q,
						"userData": {"email": "load-%d@example.com"},
						"customData": {
							"order_id": %q,
							"value": 110,
							"currency": "USD",
							"num_items": 2,
							"contents": [{"id": "P1", "quantity": 2, "item_price": 55}]
						}
					}`, eventID, workerID, eventID)

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewBufferString(payload))
					if err != nil {
						continue // Should not happen
					}
					req.Header.Set("Content-Type", "application/json")

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					if resp.StatusCode == http.StatusOK {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	log.Printf("Load test finished. Success: %d, Errors: %d", successCount.Load(), errorCount.Load())
}
