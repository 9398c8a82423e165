package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	targetHost = "http://localhost:8080"
	tenantID   = "1"
	rps        = 5
	duration   = 3 * time.Minute
)

type RegisterMemberRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
}

type PullRequestEventRequest struct {
	PullRequestID int64     `json:"pull_request_id"`
	Title         string    `json:"title"`
	State         string    `json:"state"`
	Merged        bool      `json:"merged"`
	CreatedAt     time.Time `json:"created_at"`
	Author        string    `json:"author"`
	Additions     int       `json:"additions"`
	Deletions     int       `json:"deletions"`
	HeadRef       string    `json:"head_ref"`
}

type ReviewEventRequest struct {
	PullRequest PullRequestEventRequest `json:"pull_request"`
	ReviewID    int64                   `json:"review_id"`
	Reviewer    string                  `json:"reviewer"`
	State       string                  `json:"state"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

var (
	members []string
	prIDs   []int64
	httpc   = &http.Client{Timeout: 10 * time.Second}
)

func postJSON(url string, body any) (int, error) {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)
	resp, err := httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Seed
func seedData() error {
	log.Println("Seeding: registering members...")

	for u := 1; u <= 50; u++ {
		uid := fmt.Sprintf("user-%02d", u)
		status, err := postJSON(targetHost+"/members", RegisterMemberRequest{
			ExternalUserID: uid,
			Username:       fmt.Sprintf("User_%02d", u),
		})
		if err != nil {
			return err
		}
		if status >= 400 {
			log.Printf("WARN members returned %d\n", status)
		}
		members = append(members, uid)
		time.Sleep(15 * time.Millisecond)
	}

	log.Println("Seeding: ingesting pull request events...")

	for p := 1; p <= 200; p++ {
		author := members[rand.Intn(len(members))]
		status, err := postJSON(targetHost+"/webhook/pullRequest", PullRequestEventRequest{
			PullRequestID: int64(p),
			Title:         fmt.Sprintf("PR %d by %s", p, author),
			State:         "open",
			CreatedAt:     time.Now().Add(-time.Duration(p) * time.Hour),
			Author:        author,
			Additions:     rand.Intn(500),
			Deletions:     rand.Intn(200),
			HeadRef:       fmt.Sprintf("feature/change-%d", p),
		})
		if err != nil {
			return err
		}
		if status >= 400 {
			log.Printf("WARN webhook/pullRequest returned %d\n", status)
		}
		prIDs = append(prIDs, int64(p))
		time.Sleep(10 * time.Millisecond)
	}

	log.Printf("Seed completed: members=%d prs=%d\n", len(members), len(prIDs))
	return nil
}

func headers() map[string][]string {
	return map[string][]string{
		"Content-Type": {"application/json"},
		"X-Tenant-ID":  {tenantID},
	}
}

// Targeter
func makeTargeter() vegeta.Targeter {
	reviewStates := []string{"approved", "changes_requested", "commented"}

	return func(t *vegeta.Target) error {
		r := rand.Float64()

		// 45% GET insights/pullRequest
		if r < 0.45 {
			pr := prIDs[rand.Intn(len(prIDs))]
			t.Method = http.MethodGet
			t.URL = fmt.Sprintf("%s/insights/pullRequest?external_id=%d", targetHost, pr)
			t.Body = nil
			t.Header = headers()
			return nil
		}

		// 25% GET insights/timeline
		if r < 0.70 {
			pr := prIDs[rand.Intn(len(prIDs))]
			t.Method = http.MethodGet
			t.URL = fmt.Sprintf("%s/insights/timeline?external_id=%d&recent=true", targetHost, pr)
			t.Body = nil
			t.Header = headers()
			return nil
		}

		// 10% GET insights/correlations
		if r < 0.80 {
			t.Method = http.MethodGet
			t.URL = targetHost + "/insights/correlations"
			t.Body = nil
			t.Header = headers()
			return nil
		}

		// 15% POST webhook/review
		if r < 0.95 {
			pr := prIDs[rand.Intn(len(prIDs))]
			body, _ := json.Marshal(ReviewEventRequest{
				PullRequest: PullRequestEventRequest{
					PullRequestID: pr,
					State:         "open",
					CreatedAt:     time.Now().Add(-24 * time.Hour),
				},
				ReviewID:    time.Now().UnixNano(),
				Reviewer:    members[rand.Intn(len(members))],
				State:       reviewStates[rand.Intn(len(reviewStates))],
				SubmittedAt: time.Now(),
			})
			t.Method = http.MethodPost
			t.URL = targetHost + "/webhook/review"
			t.Body = body
			t.Header = headers()
			return nil
		}

		// 5% POST webhook/pullRequest (обновление состояния)
		pr := prIDs[rand.Intn(len(prIDs))]
		body, _ := json.Marshal(PullRequestEventRequest{
			PullRequestID: pr,
			State:         "open",
			CreatedAt:     time.Now().Add(-24 * time.Hour),
			Additions:     rand.Intn(500),
			Deletions:     rand.Intn(200),
		})
		t.Method = http.MethodPost
		t.URL = targetHost + "/webhook/pullRequest"
		t.Body = body
		t.Header = headers()
		return nil
	}
}

// Attack
func runAttack() {
	rate := vegeta.Rate{Freq: rps, Per: time.Second}
	attacker := vegeta.NewAttacker()
	targeter := makeTargeter()

	var metrics vegeta.Metrics

	log.Printf("Starting attack: %s for %s", targetHost, duration)
	for res := range attacker.Attack(targeter, rate, duration, "load-test") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("=== Results ===")
	fmt.Printf("Requests: %d\n", metrics.Requests)
	fmt.Printf("Success rate: %.4f%%\n", metrics.Success*100)
	fmt.Printf("Latency mean: %s\n", metrics.Latencies.Mean)
	fmt.Printf("Latency P95: %s\n", metrics.Latencies.P95)
	fmt.Printf("Latency P99: %s\n", metrics.Latencies.P99)
}

func main() {
	rand.Seed(time.Now().UnixNano())

	if err := seedData(); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	runAttack()
}
