package domain

// Status represents a lightweight state value.
type Status string

// Order statuses known to the dashboard.
const (
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusPrepayment Status = "prepayment"
	StatusPending    Status = "pending"
)

// StatusAll is the select value meaning "no status filter".
const StatusAll = "all"
