// Package models holds the shared data model for the article pipeline:
// WorklistItem, Article, ArticleImage, ProofreadingIssue,
// ProofreadingDecision, RuleSet/Rule, and PublishTask.
package models

import "time"

// WorklistStatus is one of the sixteen^W nine lanes a WorklistItem moves
// through. Values match the adjacency graph in SPEC_FULL.md §4.5.1.
type WorklistStatus string

const (
	StatusPending             WorklistStatus = "pending"
	StatusParsing             WorklistStatus = "parsing"
	StatusParsingReview       WorklistStatus = "parsing_review"
	StatusProofreading        WorklistStatus = "proofreading"
	StatusProofreadingReview  WorklistStatus = "proofreading_review"
	StatusReadyToPublish      WorklistStatus = "ready_to_publish"
	StatusPublishing          WorklistStatus = "publishing"
	StatusPublished           WorklistStatus = "published"
	StatusFailed              WorklistStatus = "failed"
)

// Note is an append-only operator annotation on a WorklistItem.
type Note struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentMetadata is the link/ownership/freshness snapshot synced from the
// document store (§6 DocumentStoreClient contract).
type DocumentMetadata struct {
	Link         string    `json:"link,omitempty"`
	Owners       []string  `json:"owners,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// WorklistItem is the central entity: one per document ingested from the
// document store, carrying it through parse/optimize/proofread/publish.
type WorklistItem struct {
	ID         int64  `db:"id"`
	DocumentID string `db:"document_id"`

	RawHTML string `db:"raw_html"`
	RawText string `db:"raw_text"`
	Title   string `db:"title"`
	Author  string `db:"author"`

	ArticleID *int64 `db:"article_id"`

	Status WorklistStatus `db:"status"`

	DocumentMetadata DocumentMetadata `db:"document_metadata"`
	SyncedAt         time.Time        `db:"synced_at"`

	Notes []Note `db:"notes"`

	// AutoProcessFlag is the per-item auto-process opt-in (never a global
	// setting; see SPEC_FULL.md §9). It is stored and loaded with the item,
	// but no code path reads it: the item still stops at every review gate.
	AutoProcessFlag bool `db:"auto_process_flag"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// transitions is the adjacency graph of SPEC_FULL.md §4.5.1. The zero value
// of a missing "from" key means no outgoing edges (terminal).
var transitions = map[WorklistStatus][]WorklistStatus{
	StatusPending:            {StatusParsing},
	StatusParsing:            {StatusParsingReview, StatusFailed},
	StatusParsingReview:      {StatusProofreading, StatusParsing},
	StatusProofreading:       {StatusProofreadingReview, StatusFailed},
	StatusProofreadingReview: {StatusReadyToPublish, StatusProofreading, StatusParsingReview},
	StatusReadyToPublish:     {StatusPublishing},
	StatusPublishing:         {StatusPublished, StatusFailed},
	// StatusPublished and StatusFailed have no unconditional outgoing edges;
	// StatusFailed may go to any earlier state, but only via an explicit
	// operator override (see CanResetFrom).
}

// CanTransition reports whether (from, to) is an edge in the adjacency
// graph, ignoring the failed-state operator override (see CanResetFrom).
func CanTransition(from, to WorklistStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsReviewState reports whether status is one of the review lanes where an
// operator decision is pending: a document-store sync (§4.5.3) must not
// overwrite the item's content while it's parked here, only append a note.
func IsReviewState(status WorklistStatus) bool {
	return status == StatusParsingReview || status == StatusProofreadingReview
}

// CanResetFrom reports whether an operator may reset a failed item directly
// to the given earlier state. Any non-terminal state is an allowed reset
// target; resets always require a note (enforced by the caller).
func CanResetFrom(from, to WorklistStatus) bool {
	if from != StatusFailed {
		return false
	}
	switch to {
	case StatusPending, StatusParsing, StatusParsingReview, StatusProofreading, StatusProofreadingReview, StatusReadyToPublish, StatusPublishing:
		return true
	default:
		return false
	}
}
