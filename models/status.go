package models

// Queue item and review statuses. A queue item starts pending, moves through
// draft/flagged as the reviewer works, and ends submitted until a re-review
// request returns it to pending.
const (
	StatusPending   = "pending"
	StatusDraft     = "draft"
	StatusFlagged   = "flagged"
	StatusSubmitted = "submitted"
)
