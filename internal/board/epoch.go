package board

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/agentboard/internal/session"
)

// Epoch is one round of work within a session. Only the newest epoch of a
// session is live; earlier ones are history.
type Epoch struct {
	SessionID      string     `json:"sessionId"`
	Seq            int        `json:"seq"`
	CardID         string     `json:"cardId"`
	Stage          Stage      `json:"stage"`
	StageEnteredAt time.Time  `json:"stageEnteredAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	MessageCountAtCompletion int `json:"messageCountAtCompletion"`
	TaskCountAtCompletion    int `json:"taskCountAtCompletion"`

	// baseline holds the IDs of tasks finished by earlier epochs.
	baseline map[string]bool
	// completedTasks holds the IDs of tasks finished when this epoch
	// completed; it becomes the next epoch's baseline.
	completedTasks map[string]bool
	// taskSummaryAtCompletion is shown on the card once the epoch is history.
	taskSummaryAtCompletion string
	title                   string
}

// CardID returns the card identity of epoch seq of a session.
func CardID(sessionID string, seq int) string {
	return fmt.Sprintf("%s-epoch-%d", sessionID, seq)
}

func newEpoch(sess session.Session, seq int, baseline map[string]bool, p Policy, now time.Time) *Epoch {
	e := &Epoch{
		SessionID:      sess.ID,
		Seq:            seq,
		CardID:         CardID(sess.ID, seq),
		StageEnteredAt: now,
		baseline:       baseline,
	}
	e.Stage = e.stageOf(sess, p)
	if e.Stage == StageDone {
		e.complete(sess, now)
	}
	return e
}

// stageOf computes the stage of sess as seen by this epoch. Tasks that
// earlier epochs finished, and that are still completed, belong to those
// epochs; when nothing else is left the whole task list counts.
func (e *Epoch) stageOf(sess session.Session, p Policy) Stage {
	if len(e.baseline) == 0 {
		return ComputeStage(sess, p)
	}
	var own []session.TaskItem
	for _, t := range sess.Tasks {
		if !(e.baseline[t.ID] && t.Status == session.TaskCompleted) {
			own = append(own, t)
		}
	}
	if len(own) > 0 {
		sess.Tasks = own
	}
	return ComputeStage(sess, p)
}

// setStage records a stage change on the live epoch. Entering done
// snapshots the counts that later detect resumption.
func (e *Epoch) setStage(sess session.Session, stage Stage, now time.Time) bool {
	if stage == e.Stage {
		return false
	}
	e.Stage = stage
	e.StageEnteredAt = now
	if stage == StageDone {
		e.complete(sess, now)
	}
	return true
}

func (e *Epoch) complete(sess session.Session, now time.Time) {
	at := now
	e.CompletedAt = &at
	e.MessageCountAtCompletion = len(sess.Messages)
	e.TaskCountAtCompletion = len(sess.Tasks)
	e.taskSummaryAtCompletion = TaskSummary(sess.Tasks)
	e.completedTasks = make(map[string]bool, len(sess.Tasks))
	for _, t := range sess.Tasks {
		if t.Status == session.TaskCompleted {
			e.completedTasks[t.ID] = true
		}
	}
}

// Completed reports whether the epoch has ever reached done.
func (e *Epoch) Completed() bool {
	return e.CompletedAt != nil
}

// dismissable reports whether the card of this epoch may be dismissed.
func (e *Epoch) dismissable() bool {
	return e.Stage == StageDone || e.Completed()
}

// resumed reports whether sess carries new work relative to the
// completion baseline of e.
func (e *Epoch) resumed(sess session.Session, p Policy) bool {
	if !e.Completed() {
		return false
	}
	if p.ResumeOnNewTasks && len(sess.Tasks) > e.TaskCountAtCompletion && sess.HasOpenTask() {
		return true
	}
	if p.ResumeOnNewMessages && len(sess.Messages) > e.MessageCountAtCompletion {
		return true
	}
	return false
}

// TaskSummary renders the task progress line of a card.
func TaskSummary(tasks []session.TaskItem) string {
	if len(tasks) == 0 {
		return "no tasks"
	}
	done := 0
	for _, t := range tasks {
		if t.Status == session.TaskCompleted {
			done++
		}
	}
	return fmt.Sprintf("%d/%d tasks done", done, len(tasks))
}
