package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
)

type ContactHandler struct {
	contacts *storage.ContactRepository
	logger   *slog.Logger
}

func NewContactHandler(contacts *storage.ContactRepository, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

type contactRequest struct {
	ContactID    string   `json:"contact_id,omitempty"`
	Name         string   `json:"name"`
	Company      string   `json:"company"`
	Type         string   `json:"type"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Mobile       string   `json:"mobile"`
	Street       string   `json:"street"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	Country      string   `json:"country"`
	PaymentTerms string   `json:"payment_terms"`
	Rating       int      `json:"rating"`
	Specialties  []string `json:"specialties"`
	Notes        string   `json:"notes"`
}

type contactItem struct {
	ContactID    string   `json:"contact_id"`
	Name         string   `json:"name"`
	Company      string   `json:"company,omitempty"`
	Type         string   `json:"type"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Mobile       string   `json:"mobile,omitempty"`
	Street       string   `json:"street,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	ZipCode      string   `json:"zip_code,omitempty"`
	Country      string   `json:"country,omitempty"`
	PaymentTerms string   `json:"payment_terms"`
	Rating       int      `json:"rating"`
	Specialties  []string `json:"specialties,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

func contactToItem(c model.Contact) contactItem {
	return contactItem{
		ContactID:    c.ID,
		Name:         c.Name,
		Company:      c.Company,
		Type:         c.Type,
		Email:        c.Email,
		Phone:        c.Phone,
		Mobile:       c.Mobile,
		Street:       c.Street,
		City:         c.City,
		State:        c.State,
		ZipCode:      c.ZipCode,
		Country:      c.Country,
		PaymentTerms: c.PaymentTerms,
		Rating:       c.Rating,
		Specialties:  c.Specialties,
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ContactHandler) validate(w http.ResponseWriter, req *contactRequest) (*model.Contact, bool) {
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	req.PaymentTerms = strings.TrimSpace(req.PaymentTerms)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return nil, false
	}
	if req.Type == "" {
		req.Type = "supplier"
	}
	if !model.ValidContactType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid contact type")
		return nil, false
	}
	if req.PaymentTerms == "" {
		req.PaymentTerms = "net_30"
	}
	if !model.ValidPaymentTerms(req.PaymentTerms) {
		writeError(w, http.StatusBadRequest, "invalid payment terms")
		return nil, false
	}
	if req.Rating < 0 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 0 and 5")
		return nil, false
	}

	return &model.Contact{
		ID:           strings.TrimSpace(req.ContactID),
		Name:         req.Name,
		Company:      strings.TrimSpace(req.Company),
		Type:         req.Type,
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Mobile:       strings.TrimSpace(req.Mobile),
		Street:       strings.TrimSpace(req.Street),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		ZipCode:      strings.TrimSpace(req.ZipCode),
		Country:      strings.TrimSpace(req.Country),
		PaymentTerms: req.PaymentTerms,
		Rating:       req.Rating,
		Specialties:  req.Specialties,
		Notes:        strings.TrimSpace(req.Notes),
	}, true
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	c, ok := h.validate(w, &req)
	if !ok {
		return
	}

	id, err := h.contacts.Create(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contact")
		return
	}
	created, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load contact")
		return
	}
	writeJSON(w, http.StatusCreated, contactToItem(created))
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	c, ok := h.validate(w, &req)
	if !ok {
		return
	}
	if c.ID == "" {
		writeError(w, http.StatusBadRequest, "contact_id required")
		return
	}

	if _, err := h.contacts.Get(r.Context(), c.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load contact")
		return
	}
	if err := h.contacts.Update(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update contact")
		return
	}

	updated, err := h.contacts.Get(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load contact")
		return
	}
	writeJSON(w, http.StatusOK, contactToItem(updated))
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	c, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load contact")
		return
	}
	writeJSON(w, http.StatusOK, contactToItem(c))
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	contactType := strings.TrimSpace(r.URL.Query().Get("type"))
	if contactType != "" && !model.ValidContactType(contactType) {
		writeError(w, http.StatusBadRequest, "invalid type filter")
		return
	}
	limit, offset := pagination(r)

	contacts, err := h.contacts.List(r.Context(), contactType, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	items := make([]contactItem, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, contactToItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ContactHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req deactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	if err := h.contacts.Deactivate(r.Context(), req.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate contact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": req.ID, "status": "deactivated"})
}
