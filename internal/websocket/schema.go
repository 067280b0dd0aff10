package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError              Event = "error"
	EventSnapshot           Event = "snapshot"
	EventSubmissionReceived Event = "submission_received"
	EventPong               Event = "pong"
)

// TrackerEvent is published on a subject's tracker channel whenever a
// student's answers are persisted.
type TrackerEvent struct {
	Event        Event  `json:"event"`
	SubmissionID int64  `json:"submission_id"`
	StudentEmail string `json:"student_email"`
	Subject      string `json:"subject"`
	SubmittedAt  string `json:"submitted_at"`
}

// SnapshotResponse carries the full tracker view.
type SnapshotResponse struct {
	Event Event `json:"event"`
	Data  any   `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
