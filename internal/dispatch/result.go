package dispatch

import "strings"

// Origin records where a solution's code came from.
type Origin string

const (
	OriginFresh  Origin = "fresh"
	OriginCached Origin = "cached"
)

// Outcome tags how a dispatch finished.
type Outcome int

const (
	OutcomeFresh Outcome = iota
	OutcomeCached
	OutcomeDataError
	OutcomeTransportError
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeCached:
		return "cached"
	case OutcomeDataError:
		return "data_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the normalized outcome of one dispatch. On success Code, Sources
// and Origin are set; on failure ErrorMessage is. Fallback is true when a
// cached fetch failed and generation ran instead.
type Result struct {
	ProblemID    string
	Code         string
	Sources      []string
	Origin       Origin
	Outcome      Outcome
	Fallback     bool
	ErrorMessage string
}

// OK reports whether the result carries code.
func (r Result) OK() bool {
	return r.Outcome == OutcomeFresh || r.Outcome == OutcomeCached
}

// SourceList joins sources for single-line display.
func (r Result) SourceList() string {
	return strings.Join(r.Sources, ", ")
}
