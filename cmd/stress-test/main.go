package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"flight_catalog/internal/catalog"
	"flight_catalog/internal/models"
)

var (
	airlines     = []string{"MAU", "DAL", "BAW", "AFR"}
	destinations = []string{"London", "Paris", "Dubai", "Delhi"}
	baseTime     = time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
)

type StressTest struct {
	client  *http.Client
	baseURL string
}

type TestResult struct {
	TestName   string
	Success    bool
	Error      string
	Duration   time.Duration
	StatusCode int
}

type ValidationResult struct {
	TotalTests  int
	PassedTests int
	FailedTests int
	Results     []TestResult
}

func (vr *ValidationResult) add(result TestResult) {
	vr.TotalTests++
	if result.Success {
		vr.PassedTests++
	} else {
		vr.FailedTests++
	}
	vr.Results = append(vr.Results, result)
}

func NewStressTest(baseURL string) *StressTest {
	return &StressTest{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// searchRequest describes one search endpoint call and the key its results
// must be sorted by
type searchRequest struct {
	name      string
	path      string
	byArrival bool
}

func randomFlight(i int) models.Flight {
	dep := baseTime.Add(time.Duration(rand.Intn(48*60)) * time.Minute)
	dur := time.Duration(30+rand.Intn(600)) * time.Minute
	return models.Flight{
		FlightNumber:  fmt.Sprintf("ST%04d", i),
		Airline:       airlines[rand.Intn(len(airlines))],
		Destination:   destinations[rand.Intn(len(destinations))],
		DepartureTime: dep,
		ArrivalTime:   dep.Add(dur),
		Status:        models.FlightStatus(rand.Intn(5)),
		Duration:      dur,
	}
}

func randomSearch() searchRequest {
	start := baseTime.Add(time.Duration(rand.Intn(48)) * time.Hour)
	end := start.Add(time.Duration(rand.Intn(12)-2) * time.Hour)

	switch rand.Intn(5) {
	case 0:
		return searchRequest{"airline", "/api/flights/search/airline?airline=" + airlines[rand.Intn(len(airlines))], false}
	case 1:
		return searchRequest{"delayed", "/api/flights/search/delayed", false}
	case 2:
		return searchRequest{"date", "/api/flights/search/date?date=" + start.Format(catalog.DateLayout), false}
	case 3:
		q := url.Values{}
		q.Set("start", catalog.FormatTimestamp(start))
		q.Set("end", catalog.FormatTimestamp(end))
		q.Set("destination", destinations[rand.Intn(len(destinations))])
		return searchRequest{"window", "/api/flights/search/window?" + q.Encode(), false}
	default:
		return searchRequest{"arrivals", "/api/flights/search/arrivals?ref=" + url.QueryEscape(catalog.FormatTimestamp(start)), true}
	}
}

// validateSearch checks the status code and that results are sorted by the search key
func (st *StressTest) validateSearch(testName string, resp *http.Response, req searchRequest) TestResult {
	result := TestResult{TestName: testName, StatusCode: resp.StatusCode}

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
		return result
	}

	var body struct {
		Flights []catalog.Record `json:"flights"`
		Count   int              `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("Failed to decode response: %v", err)
		return result
	}
	if body.Count != len(body.Flights) {
		result.Error = fmt.Sprintf("count %d does not match %d flights", body.Count, len(body.Flights))
		return result
	}

	var prev time.Time
	for i, r := range body.Flights {
		f, err := r.Flight()
		if err != nil {
			result.Error = fmt.Sprintf("Flight %d: %v", i, err)
			return result
		}
		key := f.DepartureTime
		if req.byArrival {
			key = f.ArrivalTime
		}
		if i > 0 && key.Before(prev) {
			result.Error = fmt.Sprintf("%s results not sorted at index %d", req.name, i)
			return result
		}
		prev = key
	}

	result.Success = true
	return result
}

func (st *StressTest) seedCatalog(n int) TestResult {
	result := TestResult{TestName: "Seed catalog"}
	start := time.Now()

	flights := make([]models.Flight, 0, n)
	for i := 0; i < n; i++ {
		flights = append(flights, randomFlight(i))
	}
	doc, err := catalog.EncodeDocument(flights)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := st.client.Post(st.baseURL+"/api/catalog/import", "application/json", bytes.NewReader(doc))
	if err != nil {
		result.Error = fmt.Sprintf("Request failed: %v", err)
		return result
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	result.Duration = time.Since(start)
	result.Success = resp.StatusCode == http.StatusOK
	if !result.Success {
		result.Error = fmt.Sprintf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return result
}

func (st *StressTest) runSearchTest(concurrentUsers int, duration time.Duration, mutate bool) ValidationResult {
	log.Printf("Starting search stress test with %d concurrent users for %v (mutations: %v)", concurrentUsers, duration, mutate)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results ValidationResult
	)
	endTime := time.Now().Add(duration)

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			next := 10000 * (userID + 1)

			for time.Now().Before(endTime) {
				testStart := time.Now()
				var result TestResult

				if mutate && rand.Intn(4) == 0 {
					result = st.mutate(userID, next)
					next++
				} else {
					req := randomSearch()
					name := fmt.Sprintf("Search %s user %d", req.name, userID)
					resp, err := st.client.Get(st.baseURL + req.path)
					if err != nil {
						result = TestResult{TestName: name, Error: fmt.Sprintf("Request failed: %v", err)}
					} else {
						result = st.validateSearch(name, resp, req)
						resp.Body.Close()
					}
				}
				result.Duration = time.Since(testStart)

				mu.Lock()
				results.add(result)
				mu.Unlock()

				time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
			}
		}(i)
	}

	wg.Wait()

	log.Printf("Search test completed:")
	log.Printf("  Total requests: %d", results.TotalTests)
	log.Printf("  Successful: %d", results.PassedTests)
	log.Printf("  Failed: %d", results.FailedTests)
	if results.TotalTests > 0 {
		log.Printf("  Success rate: %.2f%%", float64(results.PassedTests)/float64(results.TotalTests)*100)
	}
	return results
}

// mutate adds a flight and removes it again
func (st *StressTest) mutate(userID, i int) TestResult {
	result := TestResult{TestName: fmt.Sprintf("Add/remove user %d", userID)}

	record := catalog.NewRecord(randomFlight(i))
	body, err := json.Marshal(record)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to encode flight: %v", err)
		return result
	}

	resp, err := st.client.Post(st.baseURL+"/api/flights", "application/json", bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("Add failed: %v", err)
		return result
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		result.StatusCode = resp.StatusCode
		result.Error = fmt.Sprintf("Add: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
		return result
	}

	req, err := http.NewRequest(http.MethodDelete, st.baseURL+"/api/flights/"+url.PathEscape(record.FlightNumber), nil)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to build remove request: %v", err)
		return result
	}
	resp, err = st.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("Remove failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	var removed struct {
		Removed int `json:"removed"`
	}
	result.StatusCode = resp.StatusCode
	if err := json.NewDecoder(resp.Body).Decode(&removed); err != nil || removed.Removed != 1 {
		result.Error = fmt.Sprintf("Remove: expected 1 flight removed, got %d", removed.Removed)
		return result
	}

	result.Success = true
	return result
}

func main() {
	log.Println("Starting Flight Catalog Stress Tests with Validation...")

	baseURL := os.Getenv("FLIGHT_CATALOG_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	st := NewStressTest(baseURL)

	var overall ValidationResult

	log.Println("=== Seed Catalog ===")
	seed := st.seedCatalog(2000)
	overall.add(seed)
	if !seed.Success {
		log.Fatalf("Failed to seed catalog: %s", seed.Error)
	}

	log.Println("\n=== Search Stress Test ===")
	searchResult := st.runSearchTest(10, 20*time.Second, false)

	log.Println("\n=== Mixed Read/Write Stress Test ===")
	mixedResult := st.runSearchTest(10, 20*time.Second, true)

	for _, vr := range []ValidationResult{searchResult, mixedResult} {
		for _, r := range vr.Results {
			overall.add(r)
		}
	}

	// Print detailed results
	log.Println("\n=== Detailed Test Results ===")
	for _, result := range overall.Results {
		if !result.Success {
			log.Printf("❌ %s: %s (Duration: %v, Status: %d)", result.TestName, result.Error, result.Duration, result.StatusCode)
		}
	}

	// Print summary
	log.Println("\n=== Test Summary ===")
	log.Printf("Total Tests: %d", overall.TotalTests)
	log.Printf("Passed: %d", overall.PassedTests)
	log.Printf("Failed: %d", overall.FailedTests)
	log.Printf("Success Rate: %.2f%%", float64(overall.PassedTests)/float64(overall.TotalTests)*100)

	if overall.FailedTests == 0 {
		log.Println("\n🎉 All tests passed!")
	} else {
		log.Printf("\n❌ %d tests failed!", overall.FailedTests)
		os.Exit(1)
	}
}
