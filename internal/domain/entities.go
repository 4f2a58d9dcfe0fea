package domain

// Mode selects which collection or table a question is answered against.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeText   Mode = "text"
	ModePDF    Mode = "pdf"
	ModeImage  Mode = "image"
	ModeAudio  Mode = "audio"
	ModeVideo  Mode = "video"
	ModeSQL    Mode = "sql"
)

// ParseMode converts a string into a Mode, defaulting to ModeNormal
// for empty input.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeNormal, ModeText, ModePDF, ModeImage, ModeAudio, ModeVideo, ModeSQL:
		return Mode(s), true
	case "":
		return ModeNormal, true
	}
	return ModeNormal, false
}

// SourceRef records where a chunk came from inside its source file.
// Page is set for PDFs, Segment plus the time bounds for audio and video.
type SourceRef struct {
	FileID    string  `json:"file_id"`
	Page      int     `json:"page,omitempty"`
	Segment   int     `json:"segment,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
}

// Chunk is the atomic unit of retrieval: a bounded span of normalized
// text with provenance. Vector is empty until the chunk is embedded, and
// the chunk is immutable afterwards.
type Chunk struct {
	ID         string
	Collection string
	Text       string
	Source     SourceRef
	Vector     []float32
}

// Exchange is one prior question/answer turn of the conversation.
type Exchange struct {
	Question string
	Answer   string
}

// QueryRequest is a single question plus the dispatch mode and the
// conversation so far. It is transient and never persisted.
type QueryRequest struct {
	Mode     Mode
	Question string
	History  []Exchange
}

// RetrievalResult holds ranked chunks with their similarity scores.
// len(Chunks) == len(Scores) and scores are non-increasing.
type RetrievalResult struct {
	Chunks []Chunk
	Scores []float64
}

// Empty reports whether the retrieval produced no grounding at all.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Column is one column of an ingested tabular dataset.
type Column struct {
	Name string
	Type string
}

// TableSchema describes the active tabular dataset of the session.
type TableSchema struct {
	Table    string
	Columns  []Column
	RowCount int
}

// TabularResult is the outcome of a compiled and executed SQL question.
type TabularResult struct {
	SQL     string
	Columns []string
	Rows    [][]string
}
