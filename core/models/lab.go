package models

import "time"

// Lab is a research lab that uploads episodes
type Lab struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UseCase   *string   `json:"use_case,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is one robot task a lab collects episodes for
type Task struct {
	ID        string    `json:"id"`
	LabID     string    `json:"lab_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups tasks under a lab
type Project struct {
	ID          string    `json:"id"`
	LabID       string    `json:"lab_id"`
	Name        string    `json:"name"`
	RobotType   *string   `json:"robot_type,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Worker is a remediation worker who claims jobs
type Worker struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WaitlistEntry is a signup on the launch waitlist
type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Role      string    `json:"role"`
	Note      *string   `json:"note,omitempty"`
	EmailSent bool      `json:"email_sent"`
	CreatedAt time.Time `json:"created_at"`
}

// LabRequest is an integration request from a prospective lab
type LabRequest struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Org              string    `json:"org"`
	UseCase          string    `json:"use_case"`
	ConfirmationSent bool      `json:"confirmation_sent"`
	AdminNotified    bool      `json:"admin_notified"`
	CreatedAt        time.Time `json:"created_at"`
}
