// Command plan_smoke posts a generation fixture against a running API
// and reports the placement outcome. Used to sanity-check a deployment
// before switching traffic to it.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type generateResult struct {
	Data struct {
		ProposalID string `json:"proposalId"`
		Result     struct {
			Status     string   `json:"status"`
			Warnings   []string `json:"warnings"`
			Errors     []string `json:"errors"`
			Statistics struct {
				TotalCourses    int `json:"totalCourses"`
				PlacedCourses   int `json:"placedCourses"`
				UnplacedCourses int `json:"unplacedCourses"`
				TotalDays       int `json:"totalDays"`
				TotalSlots      int `json:"totalSlots"`
			} `json:"statistics"`
		} `json:"result"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base        string
		fixturePath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&fixturePath, "fixture", filepath.Join("scripts", "plan_smoke", "fixture.json"), "Path to generation request fixture")
	flag.StringVar(&token, "token", os.Getenv("SMOKE_TOKEN"), "Bearer token for the API")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	payload, err := os.ReadFile(fixturePath)
	if err != nil {
		log.Fatalf("failed to read fixture: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodPost, base+"/api/v1/timetables/generate", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}

	var result generateResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("decode response (status %d): %v", resp.StatusCode, err)
	}

	if result.Error != nil {
		fmt.Printf("FAIL %s: %s (%s)\n", resp.Status, result.Error.Message, result.Error.Code)
		os.Exit(1)
	}

	stats := result.Data.Result.Statistics
	fmt.Printf("status=%s proposal=%s took=%s\n", result.Data.Result.Status, result.Data.ProposalID, time.Since(start).Round(time.Millisecond))
	fmt.Printf("courses placed %d/%d across %d days (%d slots)\n", stats.PlacedCourses, stats.TotalCourses, stats.TotalDays, stats.TotalSlots)
	for _, w := range result.Data.Result.Warnings {
		fmt.Printf("warn: %s\n", w)
	}
	for _, e := range result.Data.Result.Errors {
		fmt.Printf("error: %s\n", e)
	}

	if result.Data.Result.Status == "error" {
		os.Exit(1)
	}
}
