// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import "testing"

func TestNoResolutionRefuses(t *testing.T) {
	if _, ok := NoResolution.BreakTie([]Candidate{"A", "B"}, true); ok {
		t.Error("NoResolution resolved an electing tie")
	}
	if _, ok := NoResolution.BreakTie([]Candidate{"A", "B"}, false); ok {
		t.Error("NoResolution resolved an eliminating tie")
	}
}

func TestFirstInOrderPicksLeast(t *testing.T) {
	pick, ok := FirstInOrder.BreakTie([]Candidate{"carol", "alice", "bob"}, false)
	if !ok {
		t.Fatal("FirstInOrder refused to resolve")
	}
	if pick != "alice" {
		t.Errorf("Expected alice, got %s", pick)
	}
}

func TestRandomPicksMember(t *testing.T) {
	tied := []Candidate{"A", "B", "C"}
	for i := 0; i < 20; i++ {
		pick, ok := Random.BreakTie(tied, true)
		if !ok {
			t.Fatal("Random refused to resolve")
		}
		if pick != "A" && pick != "B" && pick != "C" {
			t.Fatalf("Random picked %q, not a tied candidate", pick)
		}
	}
}

func TestPolicyByName(t *testing.T) {
	for name, want := range map[string]TiePolicy{
		PolicyNone:         NoResolution,
		PolicyFirstInOrder: FirstInOrder,
		PolicyRandom:       Random,
	} {
		got, err := PolicyByName(name)
		if err != nil {
			t.Errorf("PolicyByName(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("PolicyByName(%q) returned the wrong policy", name)
		}
	}

	if _, err := PolicyByName("coin-flip"); err == nil {
		t.Error("Expected error for unknown policy name")
	}
}
