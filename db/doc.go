// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The DDL is the portable subset shared by PostgreSQL and
SQLite, so the same schema serves both drivers.

# Tables

The schema includes:

  - election: Election metadata, STV settings, lifecycle state
  - candidate: Candidates standing per election
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per election
  - ranking: Ordered candidate preferences per ballot
  - result_snapshot: Immutable STV count results (JSON payload)
  - device: Registered devices
  - device_election: Links devices to elections

# Relationships

	election 1──* candidate
	election 1──* username_claim
	election 1──* ballot
	ballot 1──* ranking
	election 1──* result_snapshot
	device *──* election (via device_election)

All foreign keys use ON DELETE CASCADE.

# Indexes

Performance indexes on:

  - election.share_slug (unique)
  - election.status
  - candidate.election_id
  - ballot.election_id
  - ballot.(election_id, voter_token)
  - ranking.candidate_id
  - device.device_uuid (unique)
*/
package db
