// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"math/big"
	"testing"
)

func TestNewBallotValid(t *testing.T) {
	b, err := NewBallot([]Candidate{"alice", "bob", "carol"})
	if err != nil {
		t.Fatalf("NewBallot failed: %v", err)
	}

	if got := b.Choices(); len(got) != 3 || got[0] != "alice" {
		t.Errorf("Expected choices [alice bob carol], got %v", got)
	}

	if b.Weight().Cmp(big.NewRat(1, 1)) != 0 {
		t.Errorf("Expected initial weight 1, got %v", b.Weight())
	}
}

func TestNewBallotDropsBlanks(t *testing.T) {
	b, err := NewBallot([]Candidate{"", "alice", "", "bob", ""})
	if err != nil {
		t.Fatalf("NewBallot failed: %v", err)
	}

	got := b.Choices()
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Expected blanks removed, got %v", got)
	}
}

func TestNewBallotDuplicateIsSpoiled(t *testing.T) {
	_, err := NewBallot([]Candidate{"alice", "bob", "alice"})
	if err != ErrSpoiledBallot {
		t.Errorf("Expected ErrSpoiledBallot for duplicate preference, got %v", err)
	}
}

func TestNewBallotEmptyIsSpoiled(t *testing.T) {
	for _, raw := range [][]Candidate{nil, {}, {"", "", ""}} {
		if _, err := NewBallot(raw); err != ErrSpoiledBallot {
			t.Errorf("Expected ErrSpoiledBallot for %v, got %v", raw, err)
		}
	}
}

func TestChoicesReturnsCopy(t *testing.T) {
	b, _ := NewBallot([]Candidate{"alice", "bob"})
	got := b.Choices()
	got[0] = "mallory"

	if b.Choices()[0] != "alice" {
		t.Error("Mutating the returned slice changed the ballot")
	}
}
