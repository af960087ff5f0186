package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/booking"
	"github.com/bluezpowerhouse/autoshop/internal/jobs"
	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/internal/outbox"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
	"github.com/jackc/pgx/v5"
)

type AppointmentHandler struct {
	appts      *storage.AppointmentRepository
	parts      *storage.PartRepository
	users      *storage.UserRepository
	reminders  *jobs.Repository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	remindLead time.Duration
}

func NewAppointmentHandler(appts *storage.AppointmentRepository, parts *storage.PartRepository, users *storage.UserRepository, reminders *jobs.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, remindLead time.Duration) *AppointmentHandler {
	if remindLead <= 0 {
		remindLead = 24 * time.Hour
	}
	return &AppointmentHandler{
		appts:      appts,
		parts:      parts,
		users:      users,
		reminders:  reminders,
		outboxRepo: outboxRepo,
		logger:     logger,
		remindLead: remindLead,
	}
}

type appointmentRequest struct {
	AppointmentID string                     `json:"appointment_id,omitempty"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	Type          string                     `json:"type"`
	Customer      *model.AppointmentCustomer `json:"customer"`
	StartTime     string                     `json:"start_time"`
	EndTime       string                     `json:"end_time"`
	TechnicianID  string                     `json:"assigned_technician_id"`
	RequiredParts []model.RequiredPart       `json:"required_parts"`
	EstimatedCost *model.Cost                `json:"estimated_cost"`
	Notes         string                     `json:"notes"`
}

type appointmentItem struct {
	AppointmentID string                     `json:"appointment_id"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description,omitempty"`
	Type          string                     `json:"type"`
	Customer      *model.AppointmentCustomer `json:"customer,omitempty"`
	StartTime     string                     `json:"start_time"`
	EndTime       string                     `json:"end_time"`
	Status        string                     `json:"status"`
	TechnicianID  string                     `json:"assigned_technician_id,omitempty"`
	RequiredParts []model.RequiredPart       `json:"required_parts,omitempty"`
	EstimatedCost *model.Cost                `json:"estimated_cost,omitempty"`
	ActualCost    *model.Cost                `json:"actual_cost,omitempty"`
	Notes         string                     `json:"notes,omitempty"`
	CancelledAt   string                     `json:"cancelled_at,omitempty"`
	CancelReason  string                     `json:"cancellation_reason,omitempty"`
	CreatedAt     string                     `json:"created_at"`
}

type conflictResponse struct {
	Error                 string `json:"error"`
	ConflictAppointmentID string `json:"conflict_appointment_id"`
	ConflictStart         string `json:"conflict_start"`
	ConflictEnd           string `json:"conflict_end"`
}

func appointmentToItem(a model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID: a.ID,
		Title:         a.Title,
		Description:   a.Description,
		Type:          a.Type,
		Customer:      a.Customer,
		StartTime:     a.StartTime.UTC().Format(time.RFC3339),
		EndTime:       a.EndTime.UTC().Format(time.RFC3339),
		Status:        a.Status,
		RequiredParts: a.RequiredParts,
		EstimatedCost: a.EstimatedCost,
		ActualCost:    a.ActualCost,
		Notes:         a.Notes,
		CancelReason:  a.CancelReason,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.TechnicianID != nil {
		item.TechnicianID = *a.TechnicianID
	}
	if a.CancelledAt != nil {
		item.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *AppointmentHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*model.Appointment, bool) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Type = strings.TrimSpace(req.Type)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return nil, false
	}
	if req.Type == "" {
		req.Type = "appointment"
	}
	if !model.ValidAppointmentType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid appointment type")
		return nil, false
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time")
		return nil, false
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time")
		return nil, false
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return nil, false
	}

	for i, p := range req.RequiredParts {
		if strings.TrimSpace(p.PartID) == "" || p.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("required_parts[%d]: part_id and positive quantity required", i))
			return nil, false
		}
	}

	if req.Customer != nil {
		req.Customer.Name = strings.TrimSpace(req.Customer.Name)
		if req.Customer.Name == "" {
			writeError(w, http.StatusBadRequest, "customer name required")
			return nil, false
		}
	}

	appt := &model.Appointment{
		ID:            strings.TrimSpace(req.AppointmentID),
		Title:         req.Title,
		Description:   strings.TrimSpace(req.Description),
		Type:          req.Type,
		Customer:      req.Customer,
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
		RequiredParts: req.RequiredParts,
		EstimatedCost: req.EstimatedCost,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if tech := strings.TrimSpace(req.TechnicianID); tech != "" {
		appt.TechnicianID = &tech
	}
	return appt, true
}

// checkTechnician validates the assignment and looks for an overlapping active
// appointment inside the caller's transaction. A half-open interval model
// makes back-to-back slots legal.
func (h *AppointmentHandler) checkTechnician(ctx context.Context, w http.ResponseWriter, tx pgx.Tx, appt *model.Appointment, excludeID string) bool {
	if appt.TechnicianID == nil {
		return true
	}
	exists, err := h.users.Exists(ctx, *appt.TechnicianID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check technician")
		return false
	}
	if !exists {
		writeError(w, http.StatusBadRequest, "assigned technician not found")
		return false
	}

	conflict, err := h.appts.FindConflict(ctx, tx, *appt.TechnicianID, appt.StartTime, appt.EndTime, excludeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check conflicts")
		return false
	}
	if conflict != nil {
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:                 "technician already booked in this window",
			ConflictAppointmentID: conflict.AppointmentID,
			ConflictStart:         conflict.Start.UTC().Format(time.RFC3339),
			ConflictEnd:           conflict.End.UTC().Format(time.RFC3339),
		})
		return false
	}
	return true
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	appt, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	appt.Status = string(booking.StatusScheduled)

	ctx := r.Context()
	claims, ok := ClaimsFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	appt.CreatedBy = claims.Sub

	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if !h.checkTechnician(ctx, w, tx, appt, "") {
		return
	}

	id, err := h.appts.Create(ctx, tx, appt)
	if err != nil {
		// Exclusion constraint closes the race between concurrent transactions
		// that both passed the overlap check.
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "technician already booked in this window")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	appt.ID = id

	if err := h.emitEvent(ctx, tx, appt, outbox.EventAppointmentScheduled, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}
	if !h.scheduleReminder(ctx, w, tx, appt) {
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	appt.CreatedAt = time.Now().UTC()
	writeJSON(w, http.StatusCreated, appointmentToItem(*appt))
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	appt, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	if appt.ID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := h.appts.GetForUpdate(ctx, tx, appt.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if current.Status != string(booking.StatusScheduled) {
		writeError(w, http.StatusConflict, "only scheduled appointments can be edited")
		return
	}

	if !h.checkTechnician(ctx, w, tx, appt, appt.ID) {
		return
	}

	appt.Status = current.Status
	appt.CreatedBy = current.CreatedBy
	appt.CreatedAt = current.CreatedAt
	if err := h.appts.Update(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "technician already booked in this window")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	// Moving the slot invalidates the previously queued reminder.
	if !current.StartTime.Equal(appt.StartTime) {
		if err := h.reminders.CancelPending(ctx, tx, appt.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to reschedule reminder")
			return
		}
		if !h.scheduleReminder(ctx, w, tx, appt) {
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(*appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	a, err := h.appts.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(a))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	filter := storage.AppointmentFilter{
		Status:       strings.TrimSpace(q.Get("status")),
		TechnicianID: strings.TrimSpace(q.Get("technician_id")),
	}
	if filter.Status != "" && !booking.Status(filter.Status).Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		filter.From = &t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
		filter.To = &t
	}
	filter.Limit, filter.Offset = pagination(r)

	appts, err := h.appts.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentToItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, booking.StatusInProgress, outbox.EventAppointmentStarted)
}

func (h *AppointmentHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, booking.StatusNoShow, outbox.EventAppointmentNoShow)
}

type appointmentActionRequest struct {
	AppointmentID string      `json:"appointment_id"`
	Reason        string      `json:"reason,omitempty"`
	ActualCost    *model.Cost `json:"actual_cost,omitempty"`
}

func (h *AppointmentHandler) setStatus(w http.ResponseWriter, r *http.Request, to booking.Status, eventType string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a, err := h.appts.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !booking.CanTransition(booking.Status(a.Status), to) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot transition appointment from %s to %s", a.Status, to))
		return
	}

	if err := h.appts.SetStatus(ctx, tx, a.ID, string(to)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	if to == booking.StatusNoShow {
		if err := h.reminders.CancelPending(ctx, tx, a.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to drop reminders")
			return
		}
	}
	if err := h.emitEvent(ctx, tx, &a, eventType, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	a.Status = string(to)
	writeJSON(w, http.StatusOK, appointmentToItem(a))
}

// Complete finishes an in-progress appointment and consumes its required
// parts from inventory in the same transaction.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a, err := h.appts.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !booking.CanTransition(booking.Status(a.Status), booking.StatusCompleted) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot transition appointment from %s to completed", a.Status))
		return
	}

	for _, p := range a.RequiredParts {
		if err := h.parts.DecrementStock(ctx, tx, p.PartID, p.Quantity); err != nil {
			switch {
			case storage.IsNotFound(err):
				writeError(w, http.StatusConflict, fmt.Sprintf("part %s no longer exists", p.PartID))
			case errors.Is(err, storage.ErrInsufficientStock):
				writeError(w, http.StatusConflict, fmt.Sprintf("insufficient stock for part %s", p.PartID))
			default:
				writeError(w, http.StatusInternalServerError, "failed to consume parts")
			}
			return
		}
	}

	if req.ActualCost != nil {
		a.ActualCost = req.ActualCost
		if err := h.appts.Update(ctx, tx, &a); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record actual cost")
			return
		}
	}
	if err := h.appts.SetStatus(ctx, tx, a.ID, string(booking.StatusCompleted)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	if err := h.emitEvent(ctx, tx, &a, outbox.EventAppointmentCompleted, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	a.Status = string(booking.StatusCompleted)
	writeJSON(w, http.StatusOK, appointmentToItem(a))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a, err := h.appts.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if a.Status == string(booking.StatusCancelled) && a.CancelledAt != nil {
		writeJSON(w, http.StatusOK, appointmentToItem(a))
		return
	}
	if !booking.CanTransition(booking.Status(a.Status), booking.StatusCancelled) {
		writeError(w, http.StatusConflict, "appointment cannot be cancelled")
		return
	}

	cancelledAt, err := h.appts.Cancel(ctx, tx, a.ID, string(booking.StatusCancelled), req.Reason)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}
	if err := h.reminders.CancelPending(ctx, tx, a.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to drop reminders")
		return
	}
	if err := h.emitEvent(ctx, tx, &a, outbox.EventAppointmentCancelled, map[string]any{
		"cancelled_at": cancelledAt.UTC().Format(time.RFC3339),
		"reason":       req.Reason,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	a.Status = string(booking.StatusCancelled)
	a.CancelledAt = &cancelledAt
	a.CancelReason = req.Reason
	writeJSON(w, http.StatusOK, appointmentToItem(a))
}

func (h *AppointmentHandler) emitEvent(ctx context.Context, tx pgx.Tx, a *model.Appointment, eventType string, extra map[string]any) error {
	payload := map[string]any{
		"appointment_id": a.ID,
		"title":          a.Title,
		"type":           a.Type,
		"start_time":     a.StartTime.UTC().Format(time.RFC3339),
		"end_time":       a.EndTime.UTC().Format(time.RFC3339),
	}
	if a.TechnicianID != nil {
		payload["assigned_technician_id"] = *a.TechnicianID
	}
	for k, v := range extra {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       body,
	})
}

// scheduleReminder enqueues one reminder per customer contact channel.
// Appointments without contact details get no reminders.
func (h *AppointmentHandler) scheduleReminder(ctx context.Context, w http.ResponseWriter, tx pgx.Tx, a *model.Appointment) bool {
	runAt := a.StartTime.Add(-h.remindLead)
	if runAt.Before(time.Now().UTC()) || a.Customer == nil {
		return true
	}

	channels := map[string]string{
		"email": strings.TrimSpace(a.Customer.Email),
		"sms":   strings.TrimSpace(a.Customer.Phone),
	}
	for channel, recipient := range channels {
		if recipient == "" {
			continue
		}
		job := jobs.Job{
			AppointmentID:  a.ID,
			IdempotencyKey: a.ID + "@" + channel + "@" + runAt.UTC().Format(time.RFC3339),
			Channel:        channel,
			Recipient:      recipient,
			RunAt:          runAt,
		}
		if err := h.reminders.Insert(ctx, tx, job); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to schedule reminder")
			return false
		}
	}
	return true
}
