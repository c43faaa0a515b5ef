// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the stvcount API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Election management (admin, requires X-Admin-Key):

	POST /elections                  - Create election
	GET  /elections/{id}/admin       - Get election details
	POST /elections/{id}/candidates  - Add candidate
	POST /elections/{id}/publish     - Open for voting
	POST /elections/{id}/import      - Bulk-import ballots from CSV
	POST /elections/{id}/close       - Run the STV count and seal results

Voting (public, uses share slug):

	POST /elections/{slug}/claim-username - Claim voter identity
	POST /elections/{slug}/ballots        - Submit/update ranked ballot
	GET  /elections/{slug}/my-ballot      - Review own ballot

Results (public):

	GET /elections/{slug}              - Election info and candidates
	GET /elections/{slug}/results      - Final results (closed only)
	GET /elections/{slug}/ballot-count - Ballot count
	GET /elections/{slug}/report       - Plain-text count report (closed only)

Device management:

	POST /devices/register     - Register device
	GET  /devices/me           - Get device info
	GET  /devices/my-elections - List device's elections

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	importHandler := handlers.NewImportHandler(db, cfg)
	deviceHandler := handlers.NewDeviceHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
