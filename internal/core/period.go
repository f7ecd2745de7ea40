package core

import "strings"

// Period is the time bucket the dashboard is filtered by.
type Period string

const (
	Today     Period = "today"
	Daily     Period = "daily"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

var Periods = []Period{Today, Daily, Monthly, Quarterly, Yearly}

// ParsePeriod accepts the lower or upper case period names and defaults to
// Daily for anything else.
func ParsePeriod(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p
		}
	}
	return Daily
}

// Title is the label used on the period selector.
func (p Period) Title() string {
	switch p {
	case Today:
		return "Today"
	case Daily:
		return "Daily"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	case Yearly:
		return "Yearly"
	}
	return string(p)
}
