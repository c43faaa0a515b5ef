package models

import "time"

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Counting method constants
const (
	MethodSTV = "stv"
)

// Count outcome constants recorded in result snapshots
const (
	OutcomeComplete       = "complete"
	OutcomeElectingTie    = "electing_tie"
	OutcomeEliminatingTie = "eliminating_tie"
	OutcomeUnfilledSeats  = "unfilled_seats"
)

// Request types

type CreateElectionRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	CreatorName          string `json:"creator_name"`
	Seats                int    `json:"seats"`
	AllowDefaultElection bool   `json:"allow_default_election"`
	TiePolicy            string `json:"tie_policy"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Ordered candidate IDs, most preferred first.
type SubmitBallotRequest struct {
	Rankings []string `json:"rankings"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type PublishElectionResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type ImportBallotsResponse struct {
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

type CloseElectionResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type BallotCountResponse struct {
	BallotCount int `json:"ballot_count"`
}

// Domain types

type Election struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	CreatorName          string     `json:"creator_name"`
	Method               string     `json:"method"`
	Seats                int        `json:"seats"`
	AllowDefaultElection bool       `json:"allow_default_election"`
	TiePolicy            string     `json:"tie_policy"`
	Status               string     `json:"status"`
	ShareSlug            *string    `json:"share_slug,omitempty"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID      *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type CandidateRow struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
}

type ElectionWithCandidates struct {
	Election   Election       `json:"election"`
	Candidates []CandidateRow `json:"candidates"`
}

type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
	Rankings    []string  `json:"rankings"`
}

// STV result types

// ExactScore carries a score both as an exact rational ("7/3") and as
// a float approximation for display only.
type ExactScore struct {
	Exact  string  `json:"exact"`
	Approx float64 `json:"approx"`
}

type ElectedCandidate struct {
	Name  string     `json:"name"`
	Score ExactScore `json:"score"`
}

type RoundRecord struct {
	Number   int                   `json:"number"`
	Scores   map[string]ExactScore `json:"scores"`
	Action   string                `json:"action"`
	Affected []string              `json:"affected"`
}

// STVResult is the snapshot payload: the counting engine's full output
// contract, including partial results when counting failed.
type STVResult struct {
	Outcome        string             `json:"outcome"`
	Quota          int                `json:"quota"`
	Seats          int                `json:"seats"`
	ValidBallots   int                `json:"valid_ballots"`
	SpoiledBallots int                `json:"spoiled_ballots"`
	Elected        []ElectedCandidate `json:"elected"`
	UnfilledSeats  int                `json:"unfilled_seats"`
	TiedCandidates []string           `json:"tied_candidates,omitempty"`
	FailureReason  string             `json:"failure_reason,omitempty"`
	Rounds         []RoundRecord      `json:"rounds"`
}

type ResultSnapshot struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"election_id"`
	Method     string    `json:"method"`
	ComputedAt time.Time `json:"computed_at"`
	Result     STVResult `json:"result"`
}

// Device platform constants
const (
	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Device-election link roles
const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
}

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	IsNew    bool   `json:"is_new"`
}

type DeviceInfo struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type DeviceElectionSummary struct {
	ElectionID  string    `json:"election_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	ShareSlug   *string   `json:"share_slug,omitempty"`
	Role        string    `json:"role"`
	Username    *string   `json:"username,omitempty"`
	LinkedAt    time.Time `json:"linked_at"`
	BallotCount int       `json:"ballot_count"`
}

type GetMyElectionsResponse struct {
	Elections []DeviceElectionSummary `json:"elections"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
