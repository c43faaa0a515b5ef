// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, creator_name, seats,
    allow_default_election, tie_policy
  - AddCandidateRequest: name
  - ClaimUsernameRequest: username
  - SubmitBallotRequest: rankings (ordered candidate IDs)
  - RegisterDeviceRequest: platform

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, admin_key
  - AddCandidateResponse: candidate_id
  - PublishElectionResponse: share_slug, share_url
  - ClaimUsernameResponse: voter_token
  - SubmitBallotResponse: ballot_id, message
  - ImportBallotsResponse: imported, message
  - CloseElectionResponse: closed_at, snapshot
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Election: election metadata, STV settings, lifecycle state
  - CandidateRow: a candidate standing in one election
  - Ballot: voter submission metadata plus ordered rankings
  - STVResult: full counting output (quota, counts, elected, rounds)
  - RoundRecord: one counting round's score snapshot and action
  - ExactScore: a score as an exact rational plus display float
  - ResultSnapshot: immutable result record

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Counting method:

	MethodSTV = "stv"

Count outcomes:

	OutcomeComplete       = "complete"
	OutcomeElectingTie    = "electing_tie"
	OutcomeEliminatingTie = "eliminating_tie"
	OutcomeUnfilledSeats  = "unfilled_seats"

Device roles:

	RoleVoter = "voter"
	RoleAdmin = "admin"

Platforms:

	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
*/
package models
