package attention

import (
	"fmt"
	"strings"
)

// Urgency ranks attention items. Lower values are more urgent, so sorting
// ascending puts blocking items first.
type Urgency int

const (
	UrgencyBlocking Urgency = iota
	UrgencyWaiting
	UrgencyInformational
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyBlocking:
		return "blocking"
	case UrgencyWaiting:
		return "waiting"
	case UrgencyInformational:
		return "informational"
	default:
		return "unknown"
	}
}

// MoreUrgentThan reports whether u outranks other.
func (u Urgency) MoreUrgentThan(other Urgency) bool {
	return u < other
}

// MarshalText encodes the urgency as its name.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes an urgency name.
func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUrgency converts a name back to an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocking":
		return UrgencyBlocking, nil
	case "waiting":
		return UrgencyWaiting, nil
	case "informational":
		return UrgencyInformational, nil
	default:
		return UrgencyInformational, fmt.Errorf("unknown urgency %q", s)
	}
}
