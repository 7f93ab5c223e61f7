package domain

// ResultShape classifies how a result set is best presented.
type ResultShape string

const (
	// ShapeSingleValue is a 1-row, 1-column answer.
	ShapeSingleValue ResultShape = "single_value"
	// ShapeChart is a 2-column result with more than 2 rows.
	ShapeChart ResultShape = "chart"
	// ShapeTable is every other result.
	ShapeTable ResultShape = "table"
)

// OutcomeKind tags the variant of an Outcome.
type OutcomeKind string

const (
	// OutcomeChat is a conversational answer with no query behind it.
	OutcomeChat OutcomeKind = "chat"
	// OutcomeError is a terminal failure for the turn.
	OutcomeError OutcomeKind = "error"
	// OutcomeResult is a successfully executed query result.
	OutcomeResult OutcomeKind = "result"
)

// ResultSet is the typed output of a query execution: ordered column names
// plus rows keyed by column.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RowCount returns the number of rows in the set.
func (rs *ResultSet) RowCount() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// ColumnCount returns the number of columns in the set.
func (rs *ResultSet) ColumnCount() int {
	if rs == nil {
		return 0
	}
	return len(rs.Columns)
}

// Outcome is the terminal answer for one turn. Exactly one of the variant
// field groups is meaningful, selected by Kind.
type Outcome struct {
	Kind OutcomeKind `json:"-"`

	// Chat and Result.
	Summary string `json:"summary,omitempty"`

	// Error.
	Message string `json:"message,omitempty"`
	// OffendingText carries the model output that failed extraction or
	// validation, for diagnosis.
	OffendingText string `json:"offending_text,omitempty"`

	// Result.
	Data     []map[string]any `json:"data"`
	Columns  []string         `json:"columns"`
	SQL      string           `json:"sql,omitempty"`
	RowCount int              `json:"row_count"`
	Shape    ResultShape      `json:"-"`
}

// Type returns the wire discriminator: the shape label for results,
// "chat" or "error" otherwise. Matches the response contract clients render.
func (o *Outcome) Type() string {
	if o.Kind == OutcomeResult {
		return string(o.Shape)
	}
	return string(o.Kind)
}

// AuditStatus maps the outcome onto the audit trail's status column.
func (o *Outcome) AuditStatus() string {
	switch o.Kind {
	case OutcomeError:
		return "error"
	case OutcomeChat:
		return "chat"
	default:
		return "success"
	}
}

// ChatOutcome builds a chitchat/off-topic answer.
func ChatOutcome(summary string) *Outcome {
	return &Outcome{Kind: OutcomeChat, Summary: summary, Data: []map[string]any{}, Columns: []string{}}
}

// ErrorOutcome builds a terminal error for the turn.
func ErrorOutcome(message, offendingText string) *Outcome {
	return &Outcome{Kind: OutcomeError, Message: message, OffendingText: offendingText}
}

// StageEvent is one frame of the ordered progress protocol.
type StageEvent struct {
	Stage   Stage    `json:"stage"`
	Message string   `json:"message,omitempty"`
	Result  *Outcome `json:"result,omitempty"`
}

// Stage identifies a pipeline phase in the progress protocol.
type Stage string

// Pipeline stages, in emission order. Healing only appears when the first
// execution fails; error is reachable from any state.
const (
	StageClassifying Stage = "classifying"
	StageAnalyzing   Stage = "analyzing"
	StageGenerating  Stage = "generating"
	StageExecuting   Stage = "executing"
	StageHealing     Stage = "healing"
	StageDone        Stage = "done"
	StageError       Stage = "error"
)

// Terminal reports whether the stage ends the turn.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}
