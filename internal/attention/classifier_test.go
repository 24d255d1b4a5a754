package attention

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/Iron-Ham/agentboard/internal/testutil"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	n := 0
	now := t0
	return New(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		}),
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
	)
}

func teamWorkspace(msgs ...session.Message) []session.Workspace {
	return []session.Workspace{
		testutil.Workspace("teams", "alpha", session.Session{
			ID:       "alpha",
			Kind:     session.KindMultiAgent,
			Messages: msgs,
		}),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Urgency
	}{
		{"Can you review this?", UrgencyWaiting},
		{"blocked on input", UrgencyBlocking},
		{"I CANNOT PROCEED without credentials", UrgencyBlocking},
		{"This is blocking the release", UrgencyBlocking},
		{"waiting for your go-ahead", UrgencyWaiting},
		{"please approve the plan", UrgencyWaiting},
		{"Confirm the schema?", UrgencyWaiting},
		{"blocked, waiting for review", UrgencyBlocking},
		{"finished the migration", UrgencyInformational},
		{"", UrgencyInformational},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(DefaultRules, tt.text); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEvaluate_ScenarioC(t *testing.T) {
	c := newTestClassifier()
	items := c.Evaluate(teamWorkspace(
		testutil.Message("m1", "agent-1", "Can you review this?", true, t0),
		testutil.Message("m2", "agent-2", "blocked on input", true, t0.Add(time.Minute)),
	))

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Urgency != UrgencyWaiting {
		t.Errorf("expected review message to be waiting, got %s", items[0].Urgency)
	}
	if items[0].Ref.Agent != "agent-1" {
		t.Errorf("expected agent-1, got %q", items[0].Ref.Agent)
	}
	if items[1].Urgency != UrgencyBlocking {
		t.Errorf("expected blocked message to be blocking, got %s", items[1].Urgency)
	}
	if items[1].Ref.Source != "teams" || items[1].Ref.Workspace != "alpha" || items[1].Ref.SessionID != "alpha" {
		t.Errorf("unexpected source ref: %+v", items[1].Ref)
	}
}

func TestEvaluate_SkipsMessagesNotNeedingResponse(t *testing.T) {
	c := newTestClassifier()
	items := c.Evaluate(teamWorkspace(
		testutil.Message("m1", "agent-1", "blocked on input", false, t0),
	))
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	c := newTestClassifier()
	state := teamWorkspace(
		testutil.Message("m1", "agent-1", "please review", true, t0),
		testutil.Message("m2", "agent-1", "blocked", true, t0),
	)

	first := c.Evaluate(state)
	second := c.Evaluate(state)

	if len(first) != len(second) {
		t.Fatalf("expected same item count, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("item %d: expected ID %q, got %q", i, first[i].ID, second[i].ID)
		}
		if !first[i].CreatedAt.Equal(second[i].CreatedAt) {
			t.Errorf("item %d: expected CreatedAt %v, got %v", i, first[i].CreatedAt, second[i].CreatedAt)
		}
	}
}

func TestEvaluate_IdentitySurvivesContentEdits(t *testing.T) {
	c := newTestClassifier()
	first := c.Evaluate(teamWorkspace(testutil.Message("m1", "a", "please review", true, t0)))
	second := c.Evaluate(teamWorkspace(testutil.Message("m1", "a", "please review (edited)", true, t0)))

	if first[0].ID != second[0].ID {
		t.Errorf("expected identity keyed by message ID, got %q then %q", first[0].ID, second[0].ID)
	}
	if second[0].FullContext != "please review" {
		t.Errorf("expected indexed item reused unchanged, got %q", second[0].FullContext)
	}
}

func TestEvaluate_GarbageCollects(t *testing.T) {
	tests := []struct {
		name  string
		after []session.Message
	}{
		{"message answered", []session.Message{testutil.Message("m1", "a", "please review", false, t0)}},
		{"message removed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier()
			before := c.Evaluate(teamWorkspace(testutil.Message("m1", "a", "please review", true, t0)))
			if len(before) != 1 {
				t.Fatalf("expected 1 item, got %d", len(before))
			}

			if got := c.Evaluate(teamWorkspace(tt.after...)); len(got) != 0 {
				t.Errorf("expected item gone, got %d items", len(got))
			}
			if c.Len() != 0 {
				t.Errorf("expected empty index, got %d entries", c.Len())
			}

			// A message that qualifies again is a new item.
			again := c.Evaluate(teamWorkspace(testutil.Message("m1", "a", "please review", true, t0)))
			if again[0].ID == before[0].ID {
				t.Error("expected a collected item not to resurrect with its old ID")
			}
		})
	}
}

func TestEvaluate_ScopesMessageIDsBySession(t *testing.T) {
	c := newTestClassifier()
	state := []session.Workspace{
		testutil.Workspace("teams", "alpha", session.Session{
			ID:       "alpha",
			Messages: []session.Message{testutil.Message("1", "a", "review", true, t0)},
		}),
		testutil.Workspace("teams", "beta", session.Session{
			ID:       "beta",
			Messages: []session.Message{testutil.Message("1", "b", "review", true, t0)},
		}),
	}

	items := c.Evaluate(state)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID == items[1].ID {
		t.Error("expected distinct items for equal message IDs in different sessions")
	}
}

func TestEvaluate_CustomRules(t *testing.T) {
	c := New(WithRules([]Rule{{Name: "urgent", Match: ContainsAny("urgent"), Urgency: UrgencyBlocking}}))
	items := c.Evaluate(teamWorkspace(
		testutil.Message("m1", "a", "URGENT: prod is down", true, t0),
		testutil.Message("m2", "a", "blocked", true, t0),
	))

	if items[0].Urgency != UrgencyBlocking {
		t.Errorf("expected custom rule to match, got %s", items[0].Urgency)
	}
	if items[1].Urgency != UrgencyInformational {
		t.Errorf("expected default rules replaced, got %s", items[1].Urgency)
	}
}

func TestShortContext(t *testing.T) {
	long := "This message goes on and on about the state of the migration and never stops talking about it"

	tests := []struct {
		name string
		msg  session.Message
		want string
	}{
		{"summary wins", session.Message{Summary: "schema question", Content: "long body"}, "schema question"},
		{"markdown stripped", session.Message{Content: "**Blocked** on `auth`\n\nmore detail"}, "Blocked on auth"},
		{"truncated", session.Message{Content: long}, long[:77] + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortContext(tt.msg); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHighest(t *testing.T) {
	if _, ok := Highest(nil); ok {
		t.Error("expected ok=false for no items")
	}
	got, ok := Highest([]Item{{Urgency: UrgencyInformational}, {Urgency: UrgencyBlocking}, {Urgency: UrgencyWaiting}})
	if !ok || got != UrgencyBlocking {
		t.Errorf("expected blocking, got %s", got)
	}
}

func TestForSession(t *testing.T) {
	items := []Item{
		{ID: "1", Ref: SourceRef{Source: "tasks", Workspace: "w1", SessionID: "alpha"}},
		{ID: "2", Ref: SourceRef{Source: "tasks", Workspace: "w1", SessionID: "beta"}},
		{ID: "3", Ref: SourceRef{Source: "tasks", Workspace: "w1", SessionID: "alpha"}},
		{ID: "4", Ref: SourceRef{Source: "teams", Workspace: "w1", SessionID: "alpha"}},
		{ID: "5", Ref: SourceRef{Source: "tasks", Workspace: "w2", SessionID: "alpha"}},
	}
	ref := session.WorkspaceRef{SourceName: "tasks", Key: "w1"}
	got := ForSession(items, ref, "alpha")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("expected items 1 and 3, got %+v", got)
	}
}

func TestUrgency_JSON(t *testing.T) {
	data, err := json.Marshal(Item{Urgency: UrgencyWaiting})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Item
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Urgency != UrgencyWaiting {
		t.Errorf("expected waiting, got %s", decoded.Urgency)
	}

	if _, err := ParseUrgency("bogus"); err == nil {
		t.Error("expected error for unknown urgency")
	}
}
