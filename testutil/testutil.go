// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"stvcount/auth"
	"stvcount/cliparse"
	"stvcount/db"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// Each test gets its own database; no cleanup between tests is needed.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// An in-memory database lives and dies with its connection, so the
	// pool must never open a second one.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3319,
		DatabaseURL:      ":memory:",
		DatabaseType:     "sqlite",
		AdminKeySalt:     "test-admin-salt",
		ElectionSlugSalt: "test-slug-salt",
	}
}

// CreateTestElection creates an election and returns its ID and admin key.
// status should be "draft", "open", or "closed". Defaults: 2 seats,
// default election allowed, tie policy "none".
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (electionID, adminKey, shareSlug string) {
	return CreateTestElectionSeats(t, conn, cfg, status, 2, true, "none")
}

// CreateTestElectionSeats is CreateTestElection with explicit STV settings.
func CreateTestElectionSeats(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, seats int, allowDefault bool, tiePolicy string) (electionID, adminKey, shareSlug string) {
	t.Helper()

	electionID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)

	var slug *string
	if status == "open" || status == "closed" {
		s := auth.GenerateShareSlug(electionID, cfg.ElectionSlugSalt)
		slug = &s
		shareSlug = s
	}

	var closedAt *time.Time
	if status == "closed" {
		now := time.Now()
		closedAt = &now
	}

	allow := 0
	if allowDefault {
		allow = 1
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, creator_name, seats, allow_default, tie_policy, status, share_slug, closed_at, created_at)
		VALUES ($1, 'Test Election', 'A test election', 'TestUser', $2, $3, $4, $5, $6, $7, $8)
	`, electionID, seats, allow, tiePolicy, status, slug, closedAt, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey, shareSlug
}

// AddTestCandidate adds a candidate to an election and returns the candidate ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, name string) string {
	t.Helper()

	candidateID, _ := auth.GenerateID(12)

	var position int
	err := conn.QueryRow(`
		SELECT COALESCE(MAX(position), -1) + 1 FROM candidate WHERE election_id = $1
	`, electionID).Scan(&position)
	if err != nil {
		t.Fatalf("Failed to compute candidate position: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO candidate (id, election_id, name, position)
		VALUES ($1, $2, $3, $4)
	`, candidateID, electionID, name, position)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// CreateTestVoter claims a username for an election and returns the voter token
func CreateTestVoter(t *testing.T, conn *sql.DB, electionID, username string) string {
	t.Helper()

	voterToken, _ := auth.GenerateVoterToken()
	_, err := conn.Exec(`
		INSERT INTO username_claim (election_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, electionID, username, voterToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterToken
}

// SubmitTestBallot creates a ballot with ranked candidate IDs, most
// preferred first.
func SubmitTestBallot(t *testing.T, conn *sql.DB, electionID, voterToken string, rankings []string) string {
	t.Helper()

	ballotID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO ballot (id, election_id, voter_token, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, ballotID, electionID, voterToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	for pos, candidateID := range rankings {
		_, err := conn.Exec(`
			INSERT INTO ranking (ballot_id, position, candidate_id)
			VALUES ($1, $2, $3)
		`, ballotID, pos, candidateID)
		if err != nil {
			t.Fatalf("Failed to create test ranking: %v", err)
		}
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
