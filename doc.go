// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the stvcount API server.

stvcount is a multi-seat election service: voters rank candidates in
order of preference and seats are filled by Single Transferable Vote
(STV) counting with exact rational arithmetic.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=elections.db go run main.go

Or with flags:

	go run main.go -p 3319 -d "postgres://..." -t postgres

A .env file in the working directory is loaded automatically.

# Configuration

Required settings:

  - DATABASE_URL (-d): Database connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - ELECTION_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - stv: The STV counting engine (quota, surplus transfer, elimination)
  - ballotcsv: Rank-matrix CSV parsing for bulk ballot import
  - handlers: HTTP request handlers (elections, voting, results, devices)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
