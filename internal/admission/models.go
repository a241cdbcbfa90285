// Package admission groups a sight's admission prices for display.
package admission

import "errors"

// ErrSightNotFound is returned when the sight does not exist.
var ErrSightNotFound = errors.New("sight not found")

// DefaultCurrency is assumed for amounts authored without a currency.
const DefaultCurrency = "EUR"

// Row is one authored admission price.
type Row struct {
	ID         string   `json:"id,omitempty"`
	Idx        int      `json:"idx"`
	Subsection *string  `json:"subsection,omitempty"`
	Label      string   `json:"label"`
	MinAge     *int     `json:"minAge,omitempty"`
	MaxAge     *int     `json:"maxAge,omitempty"`
	IsFree     bool     `json:"isFree"`
	Amount     *float64 `json:"amount,omitempty"`
	Currency   *string  `json:"currency,omitempty"`
	RequiresID bool     `json:"requiresId"`
	ValidFrom  *string  `json:"validFrom,omitempty"`
	ValidTo    *string  `json:"validTo,omitempty"`
	Note       *string  `json:"note,omitempty"`
}

// Group is the rows of one subsection. The default group has no subsection.
type Group struct {
	Subsection *string `json:"subsection"`
	Prices     []Price `json:"prices"`
}

// Price is a row prepared for display.
type Price struct {
	Row
	DisplayAmount string `json:"displayAmount"`
	AgeRange      string `json:"ageRange,omitempty"`
}

// Table is the display view of a sight's admission prices.
type Table struct {
	SightID string  `json:"sightId"`
	Groups  []Group `json:"groups"`
}
