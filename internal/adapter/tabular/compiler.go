package tabular

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// DefaultRowLimit caps result size when the model omits a LIMIT clause.
const DefaultRowLimit = 100

// forbiddenKeywords lists statement kinds that must never reach the
// database, matched as whole words case-insensitively.
var forbiddenKeywords = regexp.MustCompile(
	`(?i)\b(insert|update|delete|drop|alter|create|attach|detach|pragma|replace|truncate|vacuum|reindex)\b`)

var (
	selectPrefix = regexp.MustCompile(`(?i)^select\b`)
	limitClause  = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	codeFence    = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	identifier   = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
	stringLit    = regexp.MustCompile(`'(?:[^']|'')*'`)
	parenGroup   = regexp.MustCompile(`\([^()]*\)`)
	aliasDef     = regexp.MustCompile(`(?i)\bas\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// sqlVocabulary is the set of SQL keywords and functions a generated
// SELECT may contain besides the schema's own identifiers.
var sqlVocabulary = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "group": {}, "by": {}, "order": {},
	"limit": {}, "offset": {}, "as": {}, "and": {}, "or": {}, "not": {},
	"in": {}, "like": {}, "glob": {}, "between": {}, "is": {}, "null": {},
	"distinct": {}, "asc": {}, "desc": {}, "having": {}, "case": {},
	"when": {}, "then": {}, "else": {}, "end": {}, "cast": {}, "on": {},
	"join": {}, "inner": {}, "left": {}, "outer": {}, "cross": {},
	"union": {}, "all": {}, "exists": {},
	"count": {}, "sum": {}, "avg": {}, "min": {}, "max": {}, "total": {},
	"abs": {}, "round": {}, "length": {}, "lower": {}, "upper": {},
	"substr": {}, "trim": {}, "coalesce": {}, "ifnull": {}, "nullif": {},
	"date": {}, "time": {}, "datetime": {}, "strftime": {},
	"integer": {}, "real": {}, "text": {},
}

// Compiler turns a natural-language question into a validated, bounded
// SELECT statement and executes it against the session's tabular store.
type Compiler struct {
	llm      port.LLM
	store    port.TabularStore
	rowLimit int
}

// NewCompiler creates a Compiler. rowLimit <= 0 selects DefaultRowLimit.
func NewCompiler(llm port.LLM, store port.TabularStore, rowLimit int) *Compiler {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Compiler{llm: llm, store: store, rowLimit: rowLimit}
}

// CompileAndRun translates the question into SQL, validates it, bounds
// it and executes it. Validation always runs to completion before any
// execution step; a statement that fails validation is never executed.
func (c *Compiler) CompileAndRun(question string, schema domain.TableSchema, history []domain.Exchange) (domain.TabularResult, error) {
	raw, err := c.generate(question, schema, history)
	if err != nil {
		return domain.TabularResult{}, err
	}

	query := RepairSQL(raw)
	if err := Validate(query, schema); err != nil {
		return domain.TabularResult{}, err
	}
	query = EnsureLimit(query, c.rowLimit)

	return c.store.ExecuteSelect(query)
}

func (c *Compiler) generate(question string, schema domain.TableSchema, history []domain.Exchange) (string, error) {
	system := fmt.Sprintf(
		"You translate questions into SQLite SELECT statements.\n"+
			"Schema:\n%s\n"+
			"Rules: output exactly one SELECT statement and nothing else. "+
			"No explanations, no markdown. Use only the table and columns above.",
		DescribeSchema(schema))

	messages := make([]port.Message, 0, len(history)*2+1)
	for _, ex := range history {
		messages = append(messages,
			port.Message{Role: "user", Content: ex.Question},
			port.Message{Role: "assistant", Content: ex.Answer},
		)
	}
	messages = append(messages, port.Message{Role: "user", Content: question})

	return c.llm.GenerateWithSystem(system, messages)
}

// DescribeSchema renders a table schema for the generation prompt.
func DescribeSchema(schema domain.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table %s (%d rows):\n", schema.Table, schema.RowCount)
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, "  %s %s\n", col.Name, col.Type)
	}
	return b.String()
}

// RepairSQL extracts the SQL statement from a model reply: code fences
// are unwrapped, surrounding prose before the SELECT is dropped, and a
// trailing statement terminator is removed.
func RepairSQL(raw string) string {
	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	// Models sometimes preface the statement with a sentence.
	if idx := strings.Index(strings.ToLower(text), "select"); idx > 0 {
		text = text[idx:]
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	return strings.TrimSpace(text)
}

// Validate enforces the safety gate: exactly one SELECT statement, no
// data- or schema-modification keywords, and only identifiers that the
// schema knows. A violation is ErrUnsafeQuery and the statement must
// not be executed.
func Validate(query string, schema domain.TableSchema) error {
	if query == "" {
		return fmt.Errorf("%w: empty statement", domain.ErrUnsafeQuery)
	}
	if !selectPrefix.MatchString(query) {
		return fmt.Errorf("%w: only SELECT statements are allowed", domain.ErrUnsafeQuery)
	}
	if strings.Contains(query, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", domain.ErrUnsafeQuery)
	}
	if m := forbiddenKeywords.FindString(query); m != "" {
		return fmt.Errorf("%w: forbidden keyword %q", domain.ErrUnsafeQuery, strings.ToUpper(m))
	}

	known := make(map[string]struct{}, len(schema.Columns)+1)
	known[strings.ToLower(schema.Table)] = struct{}{}
	for _, col := range schema.Columns {
		known[strings.ToLower(col.Name)] = struct{}{}
	}

	// String literals may contain anything; strip them before checking
	// identifiers.
	stripped := stringLit.ReplaceAllString(query, "''")

	// Column aliases introduced by AS are legal references afterwards.
	for _, m := range aliasDef.FindAllStringSubmatch(stripped, -1) {
		known[strings.ToLower(m[1])] = struct{}{}
	}
	for _, word := range identifier.FindAllString(stripped, -1) {
		lower := strings.ToLower(word)
		if _, ok := sqlVocabulary[lower]; ok {
			continue
		}
		if _, ok := known[lower]; ok {
			continue
		}
		return fmt.Errorf("%w: unknown identifier %q", domain.ErrUnsafeQuery, word)
	}
	return nil
}

// EnsureLimit appends a LIMIT clause when the outer statement has none.
// A LIMIT inside a subquery or a string literal does not count.
func EnsureLimit(query string, rowLimit int) string {
	outer := stringLit.ReplaceAllString(query, "''")
	for {
		next := parenGroup.ReplaceAllString(outer, "")
		if next == outer {
			break
		}
		outer = next
	}
	if limitClause.MatchString(outer) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, rowLimit)
}
