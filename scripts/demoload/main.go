// Command demoload drives a running agentpulse server with a burst of
// simulated tasks and prints the resulting dashboard snapshot. Handy for
// exercising the API and the dashboard page by hand:
//
//	go run ./scripts/demoload -addr http://localhost:8080 -tasks 50
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

var taskNames = []string{"data_ingestion", "model_inference", "etl_pipeline", "report_generation", "cache_warmup"}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Base URL of the agentpulse server")
	tasks := flag.Int("tasks", 25, "Number of tasks to simulate")
	failureRate := flag.Float64("failure-rate", 0.2, "Fraction of tasks that should fail")
	maxDuration := flag.Duration("max-duration", 300*time.Millisecond, "Upper bound for simulated task duration")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < *tasks; i++ {
		name := taskNames[rnd.Intn(len(taskNames))]
		duration := rnd.Float64() * maxDuration.Seconds()
		shouldFail := rnd.Float64() < *failureRate

		body, _ := json.Marshal(map[string]any{
			"task_name":   name,
			"duration":    duration,
			"should_fail": shouldFail,
		})
		resp, err := client.Post(*addr+"/api/simulate", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("simulate request failed: %v", err)
		}
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		status := gjson.GetBytes(payload, "status").String()
		if status == "success" {
			fmt.Printf("ok   %-18s %.0fms\n", name, gjson.GetBytes(payload, "data.duration").Float()*1000)
		} else {
			fmt.Printf("fail %-18s %s\n", name, gjson.GetBytes(payload, "message").String())
		}
	}

	resp, err := client.Get(*addr + "/api/dashboard")
	if err != nil {
		log.Fatalf("dashboard request failed: %v", err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	m := gjson.GetBytes(payload, "data.metrics")
	fmt.Println("\n--- Dashboard Snapshot ---")
	fmt.Printf("Total:        %d\n", m.Get("total_requests").Int())
	fmt.Printf("Successful:   %d\n", m.Get("successful_requests").Int())
	fmt.Printf("Failed:       %d\n", m.Get("failed_requests").Int())
	fmt.Printf("Success rate: %.1f%%\n", m.Get("success_rate").Float()*100)
	fmt.Printf("Avg duration: %.1fms\n", m.Get("average_response_time").Float()*1000)
	fmt.Printf("P99 duration: %.1fms\n", m.Get("p99_response_time").Float()*1000)
	fmt.Printf("Errors shown: %d\n", gjson.GetBytes(payload, "data.recent_errors.#").Int())
}
