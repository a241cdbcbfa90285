package models

import (
	"strings"

	"github.com/wayfarer/wayfarer/internal/admission"
)

// ReplaceAdmissionRequest is the body of PUT /v1/admin/sights/{id}/admission.
type ReplaceAdmissionRequest struct {
	Rows []AdmissionRowInput `json:"rows"`
}

// AdmissionRowInput is one authored admission price.
type AdmissionRowInput struct {
	Idx        Number  `json:"idx"`
	Subsection *string `json:"subsection"`
	Label      string  `json:"label"`
	MinAge     Number  `json:"minAge"`
	MaxAge     Number  `json:"maxAge"`
	IsFree     bool    `json:"isFree"`
	Amount     Number  `json:"amount"`
	Currency   *string `json:"currency"`
	RequiresID bool    `json:"requiresId"`
	ValidFrom  *string `json:"validFrom"`
	ValidTo    *string `json:"validTo"`
	Note       *string `json:"note"`
}

// ToRows converts the body. Rows without an idx take their payload position.
func (req ReplaceAdmissionRequest) ToRows() []admission.Row {
	rows := make([]admission.Row, len(req.Rows))
	for i, r := range req.Rows {
		idx := i
		if v := r.Idx.Int(); v != nil {
			idx = *v
		}
		rows[i] = admission.Row{
			Idx:        idx,
			Subsection: trimmed(r.Subsection),
			Label:      strings.TrimSpace(r.Label),
			MinAge:     r.MinAge.Int(),
			MaxAge:     r.MaxAge.Int(),
			IsFree:     r.IsFree,
			Amount:     r.Amount.Float(),
			Currency:   trimmed(r.Currency),
			RequiresID: r.RequiresID,
			ValidFrom:  trimmed(r.ValidFrom),
			ValidTo:    trimmed(r.ValidTo),
			Note:       trimmed(r.Note),
		}
	}
	return rows
}
