package models

import (
	"fmt"
	"time"
)

// Episode represents one recorded robot-task trial
type Episode struct {
	ID             string
	TaskID         string
	LabID          string
	UploaderUserID string
	StoragePath    string  // Prefix for meta.json and video under the artifact store
	VideoPath      *string // Set only when a video was uploaded
	Success        bool
	FailureReason  *string
	FailureTimeSec *float64
	Hz             int
	Steps          int
	DurationSec    float64
	EdgeCase       bool
	QualityScore   int
	Accepted       bool
	CreatedAt      time.Time
}

// EpisodeMeta is the uploader-supplied metadata for a trial
type EpisodeMeta struct {
	TaskID         string   `json:"task_id"`
	Hz             int      `json:"hz"`
	Steps          int      `json:"steps"`
	DurationSec    float64  `json:"duration_sec"`
	Success        bool     `json:"success"`
	FailureReason  *string  `json:"failure_reason,omitempty"`
	FailureTimeSec *float64 `json:"failure_time_sec,omitempty"`
}

// Validate checks the metadata invariants before any persistence happens
func (m *EpisodeMeta) Validate() error {
	if m.TaskID == "" {
		return fmt.Errorf("task_id is required")
	}
	if m.Hz <= 0 {
		return fmt.Errorf("hz must be a positive integer")
	}
	if m.Steps <= 0 {
		return fmt.Errorf("steps must be a positive integer")
	}
	if m.DurationSec <= 0 {
		return fmt.Errorf("duration_sec must be positive")
	}
	if m.Success {
		if m.FailureReason != nil {
			return fmt.Errorf("failure_reason must be absent on a successful trial")
		}
		if m.FailureTimeSec != nil {
			return fmt.Errorf("failure_time_sec must be absent on a successful trial")
		}
	}
	if m.FailureTimeSec != nil {
		if *m.FailureTimeSec < 0 || *m.FailureTimeSec > m.DurationSec {
			return fmt.Errorf("failure_time_sec must lie within [0, duration_sec]")
		}
	}
	return nil
}
