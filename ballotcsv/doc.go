// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballotcsv parses ranked ballots from rank-matrix CSV files.

The expected layout puts candidate names in the first row and one
ballot per following row, with each cell holding that candidate's rank
on the ballot (1 is most preferred, blank is unranked):

	Alice,Bob,Carol
	1,2,
	2,,1
	1,1,2

Parse converts each row into an ordered preference list. Rows with
duplicate or unparseable ranks become empty lists, which the counting
engine treats as spoiled ballots (the third row above spoils).
*/
package ballotcsv
