package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"motion-curator/core/lifecycle"
	"motion-curator/core/models"
	"motion-curator/core/repository"
	"motion-curator/notify"
)

// WaitlistHandler handles waitlist signups and lab integration requests
type WaitlistHandler struct {
	waitlistRepo *repository.WaitlistRepository
	events       lifecycle.Emitter
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(waitlistRepo *repository.WaitlistRepository, events lifecycle.Emitter) *WaitlistHandler {
	return &WaitlistHandler{waitlistRepo: waitlistRepo, events: events}
}

type waitlistRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	Role  string  `json:"role"`
	Note  *string `json:"note,omitempty"`
}

// JoinWaitlist handles POST /api/waitlist. Signups are idempotent on
// email; re-signing up refreshes the entry but never re-sends the
// welcome email.
func (h *WaitlistHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeValidationError(w, "a valid email is required")
		return
	}
	if req.Role == "" {
		req.Role = "operator"
	}

	entry, err := h.waitlistRepo.UpsertWaitlistEntry(r.Context(), &models.WaitlistEntry{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
		Note:  req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if !entry.EmailSent {
		name := ""
		if entry.Name != nil {
			name = *entry.Name
		}
		h.events.Emit(notify.Event{
			Type: notify.EventWaitlistSignup,
			Payload: map[string]string{
				"email": entry.Email,
				"name":  name,
				"role":  entry.Role,
			},
		})
		// Marked before delivery confirmation: notification delivery is
		// best-effort and must not gate the signup.
		if err := h.waitlistRepo.MarkWelcomeSent(r.Context(), entry.Email); err == nil {
			entry.EmailSent = true
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"entry": entry})
}

type labRequestBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Org     string `json:"org"`
	UseCase string `json:"use_case"`
}

// RequestLab handles POST /api/lab_requests
func (h *WaitlistHandler) RequestLab(w http.ResponseWriter, r *http.Request) {
	var body labRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		writeValidationError(w, "a valid email is required")
		return
	}
	if body.Name == "" || body.Org == "" {
		writeValidationError(w, "name and org are required")
		return
	}

	req := &models.LabRequest{
		Name:    body.Name,
		Email:   body.Email,
		Org:     body.Org,
		UseCase: body.UseCase,
	}
	if err := h.waitlistRepo.CreateLabRequest(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	h.events.Emit(notify.Event{
		Type: notify.EventLabRequest,
		Payload: map[string]string{
			"request_id": req.ID,
			"name":       req.Name,
			"email":      req.Email,
			"org":        req.Org,
			"use_case":   req.UseCase,
		},
	})
	if err := h.waitlistRepo.MarkLabRequestNotified(r.Context(), req.ID, true, true); err == nil {
		req.ConfirmationSent = true
		req.AdminNotified = true
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"request": req})
}
