package models

import "strings"

// Flag is a yes/no answer on the form that may also be left blank.
//
// Legacy rows store these answers as free text. ParseFlag maps them:
//
//	text                         flag
//	""  (blank or whitespace)    FlagUnset
//	yes, Yes, YES                FlagYes
//	true, True, TRUE             FlagYes
//	oui, Oui, OUI                FlagYes
//	anything else (no, non,      FlagNo
//	false, "pas encore", ...)
//
// Matching is case-insensitive on the trimmed text. Only the three truthy
// tokens above count as yes; any other present answer is a no.
type Flag int

const (
	FlagUnset Flag = iota
	FlagYes
	FlagNo
)

var truthyTokens = map[string]struct{}{
	"yes":  {},
	"true": {},
	"oui":  {},
}

// ParseFlag converts legacy free text to a Flag.
func ParseFlag(text string) Flag {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return FlagUnset
	}
	if _, ok := truthyTokens[t]; ok {
		return FlagYes
	}
	return FlagNo
}

// FlagOf converts a nullable boolean to a Flag.
func FlagOf(b *bool) Flag {
	if b == nil {
		return FlagUnset
	}
	if *b {
		return FlagYes
	}
	return FlagNo
}

// Bool returns the flag as a nullable boolean.
func (f Flag) Bool() *bool {
	switch f {
	case FlagYes:
		v := true
		return &v
	case FlagNo:
		v := false
		return &v
	default:
		return nil
	}
}

// Text returns the canonical form text: "Yes", "No" or "".
func (f Flag) Text() string {
	switch f {
	case FlagYes:
		return "Yes"
	case FlagNo:
		return "No"
	default:
		return ""
	}
}

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "yes"
	case FlagNo:
		return "no"
	default:
		return "unset"
	}
}

// Badge labels for the recent-registrations list. The list and the baptism
// chart share one rule: unset shows no badge and is excluded from the chart.
const (
	BadgeBaptized    = "Baptized"
	BadgeNotBaptized = "Not Baptized"
)

// BadgeFor returns the badge text for a baptism flag, empty when unset.
func BadgeFor(f Flag) string {
	switch f {
	case FlagYes:
		return BadgeBaptized
	case FlagNo:
		return BadgeNotBaptized
	default:
		return ""
	}
}
