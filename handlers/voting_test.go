// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stvcount/models"
	"stvcount/testutil"
)

func TestClaimUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")

	tests := []struct {
		name           string
		shareSlug      string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.ClaimUsernameResponse)
	}{
		{
			name:      "valid username claim",
			shareSlug: shareSlug,
			requestBody: models.ClaimUsernameRequest{
				Username: "bob",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.ClaimUsernameResponse) {
				if resp.VoterToken == "" {
					t.Error("Expected non-empty voter_token")
				}

				// Verify the claim and its token round-trip
				var storedToken string
				err := db.QueryRow(`
					SELECT voter_token FROM username_claim
					WHERE election_id = $1 AND username = $2
				`, electionID, "bob").Scan(&storedToken)
				if err != nil {
					t.Fatalf("Failed to query voter token: %v", err)
				}
				if storedToken != resp.VoterToken {
					t.Error("Voter token mismatch")
				}
			},
		},
		{
			name:      "missing username",
			shareSlug: shareSlug,
			requestBody: models.ClaimUsernameRequest{
				Username: "",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "username too short",
			shareSlug: shareSlug,
			requestBody: models.ClaimUsernameRequest{
				Username: "a",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "username too long",
			shareSlug: shareSlug,
			requestBody: models.ClaimUsernameRequest{
				Username: "this_is_a_very_long_username_that_exceeds_fifty_characters_limit",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "election not found",
			shareSlug:      "nonexistent-slug",
			requestBody:    models.ClaimUsernameRequest{Username: "charlie"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatalf("Failed to marshal request body: %v", err)
			}

			req := httptest.NewRequest("POST", "/elections/"+tt.shareSlug+"/claim-username", bytes.NewReader(body))
			req.SetPathValue("slug", tt.shareSlug)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ClaimUsername(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.ClaimUsernameResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestClaimDuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")
	testutil.CreateTestVoter(t, db, electionID, "existinguser")

	body, _ := json.Marshal(models.ClaimUsernameRequest{Username: "existinguser"})
	req := httptest.NewRequest("POST", "/elections/"+shareSlug+"/claim-username", bytes.NewReader(body))
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ClaimUsername(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestClaimUsernameForClosedElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	_, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "closed")

	body, _ := json.Marshal(models.ClaimUsernameRequest{Username: "toolate"})
	req := httptest.NewRequest("POST", "/elections/"+shareSlug+"/claim-username", bytes.NewReader(body))
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ClaimUsername(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestSubmitBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")
	candidate1 := testutil.AddTestCandidate(t, db, electionID, "Alice")
	candidate2 := testutil.AddTestCandidate(t, db, electionID, "Bob")
	voterToken := testutil.CreateTestVoter(t, db, electionID, "voter1")

	tests := []struct {
		name           string
		shareSlug      string
		voterToken     string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.SubmitBallotResponse)
	}{
		{
			name:       "valid ballot submission",
			shareSlug:  shareSlug,
			voterToken: voterToken,
			requestBody: models.SubmitBallotRequest{
				Rankings: []string{candidate2, candidate1},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.SubmitBallotResponse) {
				if resp.BallotID == "" {
					t.Error("Expected non-empty ballot_id")
				}

				// Verify ballot was created
				var ballotExists bool
				err := db.QueryRow(`
					SELECT EXISTS(
						SELECT 1 FROM ballot
						WHERE id = $1 AND election_id = $2 AND voter_token = $3
					)
				`, resp.BallotID, electionID, voterToken).Scan(&ballotExists)
				if err != nil {
					t.Fatalf("Failed to check ballot: %v", err)
				}
				if !ballotExists {
					t.Error("Ballot was not created in database")
				}

				// Verify rankings preserve submission order
				rows, err := db.Query(`
					SELECT candidate_id FROM ranking WHERE ballot_id = $1 ORDER BY position
				`, resp.BallotID)
				if err != nil {
					t.Fatalf("Failed to query rankings: %v", err)
				}
				defer rows.Close()

				var rankings []string
				for rows.Next() {
					var candidateID string
					if err := rows.Scan(&candidateID); err != nil {
						t.Fatalf("Failed to scan ranking: %v", err)
					}
					rankings = append(rankings, candidateID)
				}

				if len(rankings) != 2 {
					t.Fatalf("Expected 2 rankings, got %d", len(rankings))
				}
				if rankings[0] != candidate2 || rankings[1] != candidate1 {
					t.Errorf("Expected rankings [%s %s], got %v", candidate2, candidate1, rankings)
				}
			},
		},
		{
			name:       "duplicate candidate in rankings",
			shareSlug:  shareSlug,
			voterToken: voterToken,
			requestBody: models.SubmitBallotRequest{
				Rankings: []string{candidate1, candidate1},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid candidate ID",
			shareSlug:  shareSlug,
			voterToken: voterToken,
			requestBody: models.SubmitBallotRequest{
				Rankings: []string{"invalid-candidate-id"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "empty rankings",
			shareSlug:  shareSlug,
			voterToken: voterToken,
			requestBody: models.SubmitBallotRequest{
				Rankings: []string{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing voter token",
			shareSlug:      shareSlug,
			voterToken:     "",
			requestBody:    models.SubmitBallotRequest{Rankings: []string{candidate1}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid voter token",
			shareSlug:      shareSlug,
			voterToken:     "invalid-token",
			requestBody:    models.SubmitBallotRequest{Rankings: []string{candidate1}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "election not found",
			shareSlug:      "nonexistent",
			voterToken:     voterToken,
			requestBody:    models.SubmitBallotRequest{Rankings: []string{candidate1}},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatalf("Failed to marshal request body: %v", err)
			}

			req := httptest.NewRequest("POST", "/elections/"+tt.shareSlug+"/ballots", bytes.NewReader(body))
			req.SetPathValue("slug", tt.shareSlug)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Voter-Token", tt.voterToken)
			w := httptest.NewRecorder()

			handler.SubmitBallot(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.SubmitBallotResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestUpdateBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")
	candidate1 := testutil.AddTestCandidate(t, db, electionID, "Alice")
	candidate2 := testutil.AddTestCandidate(t, db, electionID, "Bob")
	voterToken := testutil.CreateTestVoter(t, db, electionID, "voter1")
	ballotID := testutil.SubmitTestBallot(t, db, electionID, voterToken, []string{candidate1, candidate2})

	// Resubmit with the preference order flipped
	body, _ := json.Marshal(models.SubmitBallotRequest{
		Rankings: []string{candidate2, candidate1},
	})

	req := httptest.NewRequest("POST", "/elections/"+shareSlug+"/ballots", bytes.NewReader(body))
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Token", voterToken)
	w := httptest.NewRecorder()

	handler.SubmitBallot(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var resp models.SubmitBallotResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	// Verify ballot ID is the same (update, not insert)
	if resp.BallotID != ballotID {
		t.Errorf("Expected ballot ID to remain %s, got %s", ballotID, resp.BallotID)
	}

	if resp.Message != "Ballot updated successfully" {
		t.Errorf("Expected update message, got: %s", resp.Message)
	}

	// Verify rankings were replaced
	rows, err := db.Query(`
		SELECT candidate_id FROM ranking WHERE ballot_id = $1 ORDER BY position
	`, ballotID)
	if err != nil {
		t.Fatalf("Failed to query rankings: %v", err)
	}
	defer rows.Close()

	var rankings []string
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			t.Fatalf("Failed to scan ranking: %v", err)
		}
		rankings = append(rankings, candidateID)
	}

	if len(rankings) != 2 || rankings[0] != candidate2 || rankings[1] != candidate1 {
		t.Errorf("Expected rankings [%s %s], got %v", candidate2, candidate1, rankings)
	}
}

func TestSubmitBallotToClosedElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "closed")
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Alice")
	voterToken := testutil.CreateTestVoter(t, db, electionID, "voter1")

	body, _ := json.Marshal(models.SubmitBallotRequest{
		Rankings: []string{candidateID},
	})

	req := httptest.NewRequest("POST", "/elections/"+shareSlug+"/ballots", bytes.NewReader(body))
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Token", voterToken)
	w := httptest.NewRecorder()

	handler.SubmitBallot(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestGetMyBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")
	candidate1 := testutil.AddTestCandidate(t, db, electionID, "Alice")
	candidate2 := testutil.AddTestCandidate(t, db, electionID, "Bob")
	voterToken := testutil.CreateTestVoter(t, db, electionID, "voter1")
	ballotID := testutil.SubmitTestBallot(t, db, electionID, voterToken, []string{candidate2, candidate1})

	req := httptest.NewRequest("GET", "/elections/"+shareSlug+"/my-ballot", nil)
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("X-Voter-Token", voterToken)
	w := httptest.NewRecorder()

	handler.GetMyBallot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d. Body: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var ballot models.Ballot
	if err := json.NewDecoder(w.Body).Decode(&ballot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if ballot.ID != ballotID {
		t.Errorf("Expected ballot ID %s, got %s", ballotID, ballot.ID)
	}
	if len(ballot.Rankings) != 2 || ballot.Rankings[0] != candidate2 || ballot.Rankings[1] != candidate1 {
		t.Errorf("Expected rankings [%s %s], got %v", candidate2, candidate1, ballot.Rankings)
	}
}

func TestGetMyBallotBeforeVoting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg)

	electionID, _, shareSlug := testutil.CreateTestElection(t, db, cfg, "open")
	voterToken := testutil.CreateTestVoter(t, db, electionID, "voter1")

	req := httptest.NewRequest("GET", "/elections/"+shareSlug+"/my-ballot", nil)
	req.SetPathValue("slug", shareSlug)
	req.Header.Set("X-Voter-Token", voterToken)
	w := httptest.NewRecorder()

	handler.GetMyBallot(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
