package models

import "time"

// Job represents a unit of remediation work created for an edge-case episode
type Job struct {
	ID                string
	TaskID            string
	LabID             string
	EpisodeID         string // Triggering edge-case episode
	Status            JobStatus
	ClaimedByWorkerID *string
	FixEpisodeID      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusOpen     JobStatus = "open"
	JobStatusClaimed  JobStatus = "claimed"
	JobStatusAccepted JobStatus = "accepted"
	JobStatusRejected JobStatus = "rejected"
)

// Terminal reports whether the status accepts no further fixes
func (s JobStatus) Terminal() bool {
	return s == JobStatusAccepted || s == JobStatusRejected
}
