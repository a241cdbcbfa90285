package models

import (
	"strings"

	"github.com/wayfarer/wayfarer/internal/openinghours"
)

// ReplaceOpeningHoursRequest is the body of
// PUT /v1/admin/sights/{id}/opening-hours.
type ReplaceOpeningHoursRequest struct {
	Rules      []OpeningRuleInput      `json:"rules"`
	Exceptions []OpeningExceptionInput `json:"exceptions"`
}

// OpeningRuleInput is one authored opening-hour rule.
type OpeningRuleInput struct {
	StartMonth    Number   `json:"startMonth"`
	StartDay      Number   `json:"startDay"`
	EndMonth      Number   `json:"endMonth"`
	EndDay        Number   `json:"endDay"`
	Days          []string `json:"days"`
	OpenTime      *string  `json:"openTime"`
	CloseTime     *string  `json:"closeTime"`
	LastEntryMins Number   `json:"lastEntryMins"`
	IsClosed      bool     `json:"isClosed"`
}

// OpeningExceptionInput is one authored closure.
type OpeningExceptionInput struct {
	Type      string  `json:"type"`
	Weekday   *string `json:"weekday"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Note      *string `json:"note"`
}

// ToReplaceRequest converts the body. Weekdays are accepted as tags or full
// names; unrecognized values are kept as-is for validation to reject.
func (req ReplaceOpeningHoursRequest) ToReplaceRequest() openinghours.ReplaceRequest {
	out := openinghours.ReplaceRequest{
		Rules:      make([]openinghours.Rule, len(req.Rules)),
		Exceptions: make([]openinghours.Exception, len(req.Exceptions)),
	}

	for i, r := range req.Rules {
		days := make([]openinghours.Weekday, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, weekday(d))
		}
		out.Rules[i] = openinghours.Rule{
			StartMonth:    r.StartMonth.Int(),
			StartDay:      r.StartDay.Int(),
			EndMonth:      r.EndMonth.Int(),
			EndDay:        r.EndDay.Int(),
			Days:          days,
			Open:          trimmed(r.OpenTime),
			Close:         trimmed(r.CloseTime),
			LastEntryMins: r.LastEntryMins.Int(),
			IsClosed:      r.IsClosed,
		}
	}

	for i, e := range req.Exceptions {
		ex := openinghours.Exception{
			Kind:      openinghours.ClosureKind(strings.ToLower(strings.TrimSpace(e.Type))),
			StartDate: trimmed(e.StartDate),
			EndDate:   trimmed(e.EndDate),
			Note:      trimmed(e.Note),
		}
		if w := trimmed(e.Weekday); w != nil {
			d := weekday(*w)
			ex.Weekday = &d
		}
		out.Exceptions[i] = ex
	}
	return out
}

func weekday(s string) openinghours.Weekday {
	if w, ok := openinghours.ParseWeekday(s); ok {
		return w
	}
	return openinghours.Weekday(strings.TrimSpace(s))
}
