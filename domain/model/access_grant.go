package model

import (
	"strings"
	"time"
)

// AccessGrant binds a single access code to a content item. A grant is
// created when checkout starts and completed at most once when the buyer returns.
type AccessGrant struct {
	ID               string     `json:"id"`
	ContentItemID    string     `json:"content_item_id"`
	OwnerUserID      *string    `json:"owner_user_id,omitempty"` // nil for anonymous purchasers
	Code             string     `json:"code"`
	IssuedAt         time.Time  `json:"issued_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ExternalOrderRef *string    `json:"external_order_ref,omitempty"`
}

func (g *AccessGrant) Completed() bool { return g.CompletedAt != nil }

func (g *AccessGrant) Anonymous() bool { return g.OwnerUserID == nil }

// ValidationResult is the outcome of presenting an access code.
type ValidationResult string

const (
	AccessGranted ValidationResult = "granted"
	AccessInvalid ValidationResult = "invalid"
)

const (
	// AccessCodeAlphabet omits I, O, 0 and 1 so codes survive being read aloud.
	AccessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	AccessCodeLength   = 8
)

// WellFormedAccessCode reports whether code has the issued length and charset.
// It expects an already upper-cased code.
func WellFormedAccessCode(code string) bool {
	if len(code) != AccessCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(AccessCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
