package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

type status struct {
	Cycles   int64                `json:"cycles"`
	OKStreak int                  `json:"ok_streak"`
	Results  []domain.CheckResult `json:"results"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(api, "/")+"/api/status", nil)
	if err != nil {
		fmt.Println("Invalid API_BASE:", err)
		os.Exit(1)
	}
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Println("Bad response:", err)
		os.Exit(1)
	}

	fmt.Printf("cycles=%d ok_streak=%d\n", st.Cycles, st.OKStreak)
	if len(st.Results) == 0 {
		fmt.Println("no results yet")
		return
	}
	for _, r := range st.Results {
		fmt.Printf("%s  %-5s %-4s %6.0fms  %s\n",
			r.CheckedAt.Local().Format("2006-01-02 15:04:05"),
			r.Type, r.Outcome, r.LatencyMS, r.Host)
		if r.Details != "" && !r.OK() {
			fmt.Printf("    %s\n", r.Details)
		}
	}
}
