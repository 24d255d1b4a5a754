// Package errors holds the sentinel errors and typed errors shared across
// agentboard, plus helpers to classify them.
//
// Typed errors carry structured context (source, workspace, card, stage)
// that is rendered into the message as a bracketed key list:
//
//	err := errors.NewBoardError("cannot dismiss card", errors.ErrCardNotDismissable).
//	    WithCardID("alpha-epoch-0").WithStage("in_progress")
//	// board error [card=alpha-epoch-0, stage=in_progress]: cannot dismiss card: card is not done
//
// Every typed error unwraps to its cause, so errors.Is against the sentinels
// keeps working through any amount of wrapping.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Standard library helpers, so callers only import this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

var (
	ErrCardNotFound       = New("card not found")
	ErrCardNotDismissable = New("card is not done")

	ErrWorkspaceNotFound     = New("workspace not found")
	ErrSourceUnavailable     = New("source unavailable")
	ErrSummarizerUnavailable = New("summarizer unavailable")

	ErrTimeout      = New("operation timed out")
	ErrCanceled     = New("operation canceled")
	ErrInvalidInput = New("invalid input")
)

// Severity ranks how loudly an error should be reported.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"debug", "info", "warning", "error", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// Classified is implemented by every typed error in this package.
type Classified interface {
	error
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

// traits is embedded by the typed errors and answers the Classified methods.
type traits struct {
	severity   Severity
	retryable  bool
	userFacing bool
	cause      error
}

func (t *traits) Severity() Severity { return t.severity }
func (t *traits) IsRetryable() bool  { return t.retryable }
func (t *traits) IsUserFacing() bool { return t.userFacing }
func (t *traits) Unwrap() error      { return t.cause }

// render builds "kind [k=v, ...]: msg: cause". Pairs with an empty value are
// omitted.
func render(kind, msg string, cause error, pairs ...string) string {
	var b strings.Builder
	b.WriteString(kind)

	var ctx []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			ctx = append(ctx, pairs[i]+"="+pairs[i+1])
		}
	}
	if len(ctx) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteByte(']')
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if cause != nil {
		b.WriteString(": ")
		b.WriteString(cause.Error())
	}
	return b.String()
}

// SourceError reports a session source that failed to detect, scan or watch
// a workspace. The workspace is read again on the next change, so these are
// retryable.
type SourceError struct {
	traits
	Message   string
	Source    string
	Workspace string
}

func NewSourceError(message string, cause error) *SourceError {
	return &SourceError{
		traits:  traits{severity: SeverityWarning, retryable: true, cause: cause},
		Message: message,
	}
}

func (e *SourceError) WithSource(name string) *SourceError   { e.Source = name; return e }
func (e *SourceError) WithWorkspace(key string) *SourceError { e.Workspace = key; return e }

func (e *SourceError) Error() string {
	return render("source error", e.Message, e.cause, "source", e.Source, "workspace", e.Workspace)
}

// BoardError reports a rejected board command such as a dismiss.
type BoardError struct {
	traits
	Message string
	CardID  string
	Stage   string
}

func NewBoardError(message string, cause error) *BoardError {
	return &BoardError{
		traits:  traits{severity: SeverityWarning, userFacing: true, cause: cause},
		Message: message,
	}
}

func (e *BoardError) WithCardID(id string) *BoardError   { e.CardID = id; return e }
func (e *BoardError) WithStage(stage string) *BoardError { e.Stage = stage; return e }

func (e *BoardError) Error() string {
	return render("board error", e.Message, e.cause, "card", e.CardID, "stage", e.Stage)
}

// NotFoundError reports a missing resource, e.g. "workspace 'teams/alpha' not found".
type NotFoundError struct {
	traits
	ResourceType string
	ResourceID   string
}

func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		traits:       traits{severity: SeverityWarning, userFacing: true},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

func (e *NotFoundError) WithCause(cause error) *NotFoundError { e.cause = cause; return e }

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// ValidationError reports bad input. It always matches ErrInvalidInput.
type ValidationError struct {
	traits
	Message string
	Field   string
	Value   any
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		traits:  traits{severity: SeverityWarning, userFacing: true},
		Message: message,
	}
}

func (e *ValidationError) WithField(field string) *ValidationError { e.Field = field; return e }
func (e *ValidationError) WithValue(value any) *ValidationError    { e.Value = value; return e }
func (e *ValidationError) WithCause(cause error) *ValidationError  { e.cause = cause; return e }

func (e *ValidationError) Error() string {
	var ctx []string
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	// An empty value is still worth showing: it is usually the problem.
	if e.Value != nil {
		ctx = append(ctx, fmt.Sprintf("value=%v", e.Value))
	}
	kind := "validation error"
	if len(ctx) > 0 {
		kind += " [" + strings.Join(ctx, ", ") + "]"
	}
	return render(kind, e.Message, e.cause)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// TimeoutError reports an operation that ran past its deadline. It always
// matches ErrTimeout.
type TimeoutError struct {
	traits
	Operation string
	Duration  time.Duration
}

func NewTimeoutError(operation string, d time.Duration) *TimeoutError {
	return &TimeoutError{
		traits:    traits{severity: SeverityWarning, retryable: true, userFacing: true},
		Operation: operation,
		Duration:  d,
	}
}

func (e *TimeoutError) WithCause(cause error) *TimeoutError { e.cause = cause; return e }

func (e *TimeoutError) Error() string {
	return render("timeout error", fmt.Sprintf("%s (timeout: %s)", e.Operation, e.Duration), e.cause)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// IsRetryable reports whether err is transient. Untyped errors are retryable
// only when they wrap ErrTimeout.
func IsRetryable(err error) bool {
	var c Classified
	if As(err, &c) {
		return c.IsRetryable()
	}
	return err != nil && Is(err, ErrTimeout)
}

// IsUserFacing reports whether err's message may be shown to a user as is.
func IsUserFacing(err error) bool {
	var c Classified
	return As(err, &c) && c.IsUserFacing()
}

// GetSeverity returns err's severity, SeverityError for untyped errors and
// SeverityDebug for nil.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var c Classified
	if As(err, &c) {
		return c.Severity()
	}
	return SeverityError
}

// Wrap prefixes err with message. It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
