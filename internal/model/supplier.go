package model

import "errors"

// SupplierRef is a tagged union: an order's supplier is either a reference
// into the contacts catalog or a one-off inline record, never both.
type SupplierRef struct {
	ContactID string          `json:"contact_id,omitempty"`
	Inline    *InlineSupplier `json:"inline,omitempty"`
}

type InlineSupplier struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

var (
	ErrSupplierMissing   = errors.New("supplier requires either contact_id or inline record")
	ErrSupplierAmbiguous = errors.New("supplier must not set both contact_id and inline record")
)

func (s SupplierRef) Validate() error {
	hasContact := s.ContactID != ""
	hasInline := s.Inline != nil
	switch {
	case !hasContact && !hasInline:
		return ErrSupplierMissing
	case hasContact && hasInline:
		return ErrSupplierAmbiguous
	}
	if hasInline && s.Inline.Name == "" {
		return errors.New("inline supplier requires a name")
	}
	return nil
}

func (s SupplierRef) IsContact() bool { return s.ContactID != "" }
