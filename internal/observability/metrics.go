package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters. Exporting them to an external
// scraper is deliberately out of scope; handlers and services record here
// and the counters are inspectable in tests and debug endpoints.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	passcodesIssued int64
	passcodeChecks  map[string]int64
	issuesCreated   int64
	eventsPublished int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
		passcodeChecks: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordPasscodeIssued counts issued passcodes.
func (m *Metrics) RecordPasscodeIssued() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passcodesIssued++
}

// RecordPasscodeCheck counts verification outcomes by result label.
func (m *Metrics) RecordPasscodeCheck(result string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passcodeChecks[result]++
}

// RecordIssueCreated counts logged issues.
func (m *Metrics) RecordIssueCreated() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuesCreated++
}

// RecordEventPublished counts realtime fan-out publishes.
func (m *Metrics) RecordEventPublished() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished++
}

// Snapshot returns a copy of the counter state. Served by the metrics
// debug endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{
		"passcodes_issued": m.passcodesIssued,
		"issues_created":   m.issuesCreated,
		"events_published": m.eventsPublished,
	}
	for k, v := range m.passcodeChecks {
		out["passcode_check_"+k] = v
	}
	for k, v := range m.requestCount {
		out["request_"+k] = v
	}
	for k, v := range m.errorCount {
		out["error_"+k] = v
	}
	return out
}
