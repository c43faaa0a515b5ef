// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Parse reads a rank-matrix CSV: the first row lists candidate names,
// and every following row is one ballot holding a rank number (1 =
// most preferred) under each candidate's column, blank for unranked.
//
// Each returned ballot is the ordered preference list for one row. A
// row with a duplicate or malformed rank comes back as an empty list
// so the counting engine can record it as spoiled rather than the
// import crashing on one bad ballot.
func Parse(r io.Reader) (candidates []string, ballots [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are zipped against the header

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read candidate row: %w", err)
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("csv has no candidate columns")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read ballot row %d: %w", len(ballots)+2, err)
		}
		ballots = append(ballots, parseRow(record, header))
	}

	return header, ballots, nil
}

// parseRow turns one rank row into an ordered preference list. Cells
// past the header width are ignored; a short row just leaves trailing
// candidates unranked.
func parseRow(row, candidates []string) []string {
	ranked := make(map[int]string, len(row))
	for i, cell := range row {
		if i >= len(candidates) || cell == "" {
			continue
		}

		rank, err := strconv.Atoi(cell)
		if err != nil {
			return []string{}
		}
		if _, taken := ranked[rank]; taken {
			return []string{}
		}
		ranked[rank] = candidates[i]
	}

	ranks := make([]int, 0, len(ranked))
	for rank := range ranked {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	ordered := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		ordered = append(ordered, ranked[rank])
	}
	return ordered
}
