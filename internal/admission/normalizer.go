package admission

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	displayFree    = "Free"
	displayDetails = "See details"
)

// Normalizer turns authored rows into display groups.
type Normalizer struct {
	// DefaultCurrency applies to rows without a currency. Defaults to EUR.
	DefaultCurrency string

	// Language selects number formatting. Defaults to English.
	Language language.Tag
}

// Normalize groups rows by subsection: the default group first, then
// subsections in order of first appearance. Rows keep their idx order
// within a group.
func (n Normalizer) Normalize(rows []Row) []Group {
	var (
		def     Group
		named   []Group
		byTitle = make(map[string]int)
	)
	for _, r := range rows {
		sub := subsection(r.Subsection)
		if sub == "" {
			def.Prices = append(def.Prices, n.price(r))
			continue
		}
		i, ok := byTitle[sub]
		if !ok {
			i = len(named)
			byTitle[sub] = i
			named = append(named, Group{Subsection: &sub})
		}
		named[i].Prices = append(named[i].Prices, n.price(r))
	}

	groups := make([]Group, 0, len(named)+1)
	if len(def.Prices) > 0 {
		groups = append(groups, def)
	}
	groups = append(groups, named...)
	for _, g := range groups {
		sort.SliceStable(g.Prices, func(i, j int) bool { return g.Prices[i].Idx < g.Prices[j].Idx })
	}
	return groups
}

func (n Normalizer) price(r Row) Price {
	return Price{Row: r, DisplayAmount: n.DisplayAmount(r), AgeRange: AgeRange(r.MinAge, r.MaxAge)}
}

// DisplayAmount renders "Free", a currency amount, or "See details".
func (n Normalizer) DisplayAmount(r Row) string {
	switch {
	case r.IsFree:
		return displayFree
	case r.Amount == nil:
		return displayDetails
	}

	code := n.DefaultCurrency
	if r.Currency != nil && strings.TrimSpace(*r.Currency) != "" {
		code = strings.ToUpper(strings.TrimSpace(*r.Currency))
	}
	if code == "" {
		code = DefaultCurrency
	}

	lang := n.Language
	if lang == language.Und {
		lang = language.English
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, *r.Amount)
	}
	return message.NewPrinter(lang).Sprint(currency.Symbol(unit.Amount(*r.Amount)))
}

// AgeRange renders "min–max", "min+", "Up to max", or "".
func AgeRange(minAge, maxAge *int) string {
	switch {
	case minAge != nil && maxAge != nil:
		return fmt.Sprintf("%d–%d", *minAge, *maxAge)
	case minAge != nil:
		return fmt.Sprintf("%d+", *minAge)
	case maxAge != nil:
		return fmt.Sprintf("Up to %d", *maxAge)
	}
	return ""
}

func subsection(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
