package attention

import "strings"

// Rule maps a predicate over message text to an urgency.
type Rule struct {
	Name    string
	Match   func(text string) bool
	Urgency Urgency
}

// ContainsAny returns a predicate matching text that contains any of the
// keywords, ignoring case.
func ContainsAny(keywords ...string) func(string) bool {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return func(text string) bool {
		text = strings.ToLower(text)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is evaluated top to bottom; the first match wins and text
// matching nothing is informational.
var DefaultRules = []Rule{
	{
		Name:    "blocked",
		Match:   ContainsAny("blocked", "blocking", "cannot proceed"),
		Urgency: UrgencyBlocking,
	},
	{
		Name:    "waiting",
		Match:   ContainsAny("waiting", "approve", "confirm", "review"),
		Urgency: UrgencyWaiting,
	},
}

// Classify returns the urgency of the first rule matching text.
func Classify(rules []Rule, text string) Urgency {
	for _, r := range rules {
		if r.Match(text) {
			return r.Urgency
		}
	}
	return UrgencyInformational
}
