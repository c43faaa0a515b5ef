// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the stvcount API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ElectionHandler: Election lifecycle (create, publish, close)
  - VotingHandler: Username claims and ranked ballot submission
  - ResultsHandler: Election info and results retrieval
  - ImportHandler: Bulk CSV ballot import
  - DeviceHandler: Device registration and election history

Handlers are created via constructor functions that accept *sql.DB and Config:

	electionHandler := handlers.NewElectionHandler(db, cfg)

# Election Lifecycle

Elections progress through three states: draft → open → closed

	POST /elections                 → CreateElection (returns admin_key)
	POST /elections/{id}/candidates → AddCandidate (draft only)
	POST /elections/{id}/publish    → PublishElection (generates share_slug)
	POST /elections/{id}/close      → CloseElection (runs the STV count)

Admin operations require the X-Admin-Key header.

# Voting Flow

Voters interact via the share slug:

	POST /elections/{slug}/claim-username → ClaimUsername (returns voter_token)
	POST /elections/{slug}/ballots        → SubmitBallot (create or update)

A ballot is an ordered list of candidate IDs, most preferred first.
Voter operations require the X-Voter-Token header.

# STV Counting

The count glue lives in count.go:

	result, err := ComputeSTVResult(db, electionID)

It loads the election's candidates and ballots, runs the stv package's
count, and renders the outcome (including tie and unfilled-seat
failures with partial results) as the snapshot payload.

# Device Tracking

Optional device tracking for native apps:

	POST /devices/register      → Register
	GET /devices/me             → GetMe
	GET /devices/my-elections   → GetMyElections

Device operations require the X-Device-UUID header.
*/
package handlers
