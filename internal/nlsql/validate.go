package nlsql

import (
	"context"
	"regexp"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/dataset"
)

// CandidateQuery is one generate-attempt's output: the raw model text, the
// extracted statement, and whether it passed every validation gate.
// A candidate is never executed unless Validated is true.
type CandidateQuery struct {
	Raw       string
	SQL       string
	Validated bool
}

// forbiddenKeywords are statements that mutate schema or data, plus
// engine-specific write/administrative operations. Matched as whole words,
// case-insensitively, against the extracted statement.
var forbiddenKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE", "TRUNCATE",
	// SQLite-specific write/admin operations.
	"COPY", "EXPORT", "IMPORT", "ATTACH", "DETACH", "INSTALL", "LOAD",
	"PRAGMA", "VACUUM", "REINDEX", "ANALYZE",
}

var (
	fencedBlockRe  = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	selectStmtRe   = regexp.MustCompile(`(?is)(SELECT\s.+)`)
	selectPrefixRe = regexp.MustCompile(`(?i)^\s*SELECT\b`)
	forbiddenRe    = regexp.MustCompile(`(?i)\b(` + strings.Join(forbiddenKeywords, "|") + `)\b`)
)

// ExtractSQL pulls the candidate statement out of free-form model text:
// a fenced code block if present, otherwise the first substring starting
// at a SELECT token, otherwise the trimmed raw text.
func ExtractSQL(modelText string) string {
	if m := fencedBlockRe.FindStringSubmatch(modelText); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := selectStmtRe.FindStringSubmatch(modelText); m != nil {
		return strings.TrimSuffix(strings.TrimSpace(m[1]), ";")
	}
	return strings.TrimSpace(modelText)
}

// IsSafeSQL checks that the statement is a single read-only SELECT with no
// forbidden keyword as a whole word. The scan runs against the extracted
// statement only: that text is the only text ever executed, so prose
// around it cannot reach the engine.
func IsSafeSQL(sql string) bool {
	if !selectPrefixRe.MatchString(sql) {
		return false
	}
	return !forbiddenRe.MatchString(sql)
}

// ExtractAndValidate extracts a statement from model text and runs all
// three validation gates: read-only shape, forbidden-keyword scan, and an
// engine dry-run. An unvalidated candidate means the generation failed;
// the caller must not treat it as an execution failure.
func ExtractAndValidate(ctx context.Context, modelText string, eng dataset.Engine) CandidateQuery {
	cand := CandidateQuery{Raw: modelText, SQL: ExtractSQL(modelText)}
	if cand.SQL == "" || !IsSafeSQL(cand.SQL) {
		return cand
	}
	if err := eng.DryRun(ctx, cand.SQL); err != nil {
		return cand
	}
	cand.Validated = true
	return cand
}
