// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import "fmt"

// TieError reports a tie the configured policy could not resolve:
// either more candidates reached quota than seats were open, or more
// than one candidate shares the minimum score. Rounds recorded before
// the failure remain valid; the count itself is finished.
type TieError struct {
	Elected  []Candidate // elected before the failure, in election order
	Tied     []Candidate
	Electing bool
}

func (e *TieError) Error() string {
	if e.Electing {
		return fmt.Sprintf("unresolved tie when electing: %v", e.Tied)
	}
	return fmt.Sprintf("unresolved tie when eliminating: %v", e.Tied)
}

// UnfilledSeatsError reports that counting cannot fill every seat:
// the candidate pool ran out, or default election would be needed but
// is disallowed by configuration.
type UnfilledSeatsError struct {
	Elected  []Candidate
	Unfilled int
	Reason   string
}

func (e *UnfilledSeatsError) Error() string {
	return e.Reason
}
