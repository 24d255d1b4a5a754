package board

import "github.com/Iron-Ham/agentboard/internal/session"

// Stage is a board column.
type Stage string

const (
	StageBacklog    Stage = "backlog"
	StageInProgress Stage = "in_progress"
	StageDone       Stage = "done"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageBacklog, StageInProgress, StageDone:
		return true
	}
	return false
}

// Stages lists the board columns in display order.
func Stages() []Stage {
	return []Stage{StageBacklog, StageInProgress, StageDone}
}

// Policy holds the tunable heuristics of the stage machine.
type Policy struct {
	// MixedStage is the stage of a session whose tasks are partly completed
	// and partly pending with none in progress.
	MixedStage Stage
	// ResumeOnNewTasks opens a new epoch when a completed session gains
	// tasks and at least one is open.
	ResumeOnNewTasks bool
	// ResumeOnNewMessages opens a new epoch when a completed session gains
	// messages.
	ResumeOnNewMessages bool
}

// DefaultPolicy returns the stock heuristics.
func DefaultPolicy() Policy {
	return Policy{
		MixedStage:          StageInProgress,
		ResumeOnNewTasks:    true,
		ResumeOnNewMessages: true,
	}
}

type stageRule struct {
	match func(sess *session.Session) bool
	stage func(p Policy) Stage
}

func fixed(s Stage) func(Policy) Stage {
	return func(Policy) Stage { return s }
}

// stageRules is evaluated top to bottom; the first match wins.
var stageRules = []stageRule{
	{
		match: func(s *session.Session) bool { return len(s.Tasks) == 0 && len(s.Messages) == 0 },
		stage: fixed(StageBacklog),
	},
	{
		match: func(s *session.Session) bool { return len(s.Tasks) == 0 },
		stage: fixed(StageInProgress),
	},
	{
		match: func(s *session.Session) bool { return s.IsActive },
		stage: fixed(StageInProgress),
	},
	{
		match: func(s *session.Session) bool { return allTasks(s, session.TaskCompleted) },
		stage: fixed(StageDone),
	},
	{
		match: func(s *session.Session) bool { return anyTask(s, session.TaskInProgress) },
		stage: fixed(StageInProgress),
	},
	{
		match: func(s *session.Session) bool { return allTasks(s, session.TaskPending) },
		stage: fixed(StageBacklog),
	},
}

// ComputeStage derives the stage of a session from its current tasks,
// messages and liveness.
func ComputeStage(sess session.Session, p Policy) Stage {
	for _, r := range stageRules {
		if r.match(&sess) {
			return r.stage(p)
		}
	}
	if p.MixedStage.Valid() {
		return p.MixedStage
	}
	return StageInProgress
}

func allTasks(s *session.Session, status session.TaskStatus) bool {
	for _, t := range s.Tasks {
		if t.Status != status {
			return false
		}
	}
	return len(s.Tasks) > 0
}

func anyTask(s *session.Session, status session.TaskStatus) bool {
	for _, t := range s.Tasks {
		if t.Status == status {
			return true
		}
	}
	return false
}
