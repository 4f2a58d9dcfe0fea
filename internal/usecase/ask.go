package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/analyzer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/tabular"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

const (
	defaultTopK         = 5
	defaultMaxPromptLen = 6000
)

// Per-mode system instructions for the generation model.
var modeInstructions = map[domain.Mode]string{
	domain.ModeNormal: "You are a helpful assistant. Answer the question directly, using the conversation history for context.",
	domain.ModeText:   "You are a document assistant. Answer using only the provided text excerpts. If the excerpts do not contain the answer, say so.",
	domain.ModePDF:    "You are a document assistant. Answer using only the provided document excerpts. Mention the page when the excerpt allows it. If the excerpts do not contain the answer, say so.",
	domain.ModeImage:  "You are a visual assistant. The context contains textual descriptions of uploaded images. Answer using only those descriptions. If they do not contain the answer, say so.",
	domain.ModeAudio:  "You are an audio assistant. The context contains transcribed speech with timestamps. Answer using only the transcription. Mention timestamps when relevant.",
	domain.ModeVideo:  "You are a video assistant. The context contains the transcribed audio of a video with timestamps. Answer using only the transcription. Mention timestamps when relevant.",
}

const noContextInstruction = "You are a helpful assistant. No stored content matched the question. State clearly that no relevant content was found for it, and suggest ingesting the relevant files first. Do not invent an answer."

// Answer is the orchestrator's reply: the generated text, the chunks it
// was grounded on, and which collection or table they came from.
type Answer struct {
	Answer    string
	Grounding domain.RetrievalResult
	Source    string
}

// AskUseCase routes a question to exactly one collection or to the
// tabular store, assembles a grounded prompt and generates the answer.
type AskUseCase struct {
	store        port.VectorStore
	llm          port.LLM
	compiler     *tabular.Compiler
	tabularStore port.TabularStore
	tokenizer    *analyzer.Tokenizer
	topK         int
	maxPromptLen int
	videoTarget  string
}

func NewAskUseCase(
	store port.VectorStore,
	llm port.LLM,
	compiler *tabular.Compiler,
	tabularStore port.TabularStore,
	tokenizer *analyzer.Tokenizer,
	topK int,
	maxPromptLen int,
) *AskUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	if maxPromptLen <= 0 {
		maxPromptLen = defaultMaxPromptLen
	}
	return &AskUseCase{
		store:        store,
		llm:          llm,
		compiler:     compiler,
		tabularStore: tabularStore,
		tokenizer:    tokenizer,
		topK:         topK,
		maxPromptLen: maxPromptLen,
	}
}

// SetVideoTarget pins video questions to one specific video collection.
// Without a pin the most recently listed video collection is used.
func (u *AskUseCase) SetVideoTarget(collection string) {
	u.videoTarget = collection
}

// Ask answers the question in the mode the request names.
func (u *AskUseCase) Ask(req domain.QueryRequest) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidConfiguration)
	}

	switch req.Mode {
	case domain.ModeSQL:
		return u.askTabular(question, req.History)
	case domain.ModeNormal:
		return u.generate(req.Mode, question, req.History, domain.RetrievalResult{}, "")
	}

	collection, err := u.dispatch(req.Mode)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		// Mode with nothing ever ingested degrades to an ungrounded
		// answer rather than an error.
		return u.generate(req.Mode, question, req.History, domain.RetrievalResult{}, "")
	}

	grounding, err := u.store.Search(collection, question, u.topK)
	if err != nil {
		return nil, err
	}
	if grounding.Empty() {
		grounding, err = u.keywordFallback(collection, question)
		if err != nil {
			return nil, err
		}
	}
	return u.generate(req.Mode, question, req.History, grounding, collection)
}

// dispatch maps a mode to its one collection. An empty collection name
// means nothing relevant was ever ingested.
func (u *AskUseCase) dispatch(mode domain.Mode) (string, error) {
	if mode != domain.ModeVideo {
		return CollectionFor(mode, ""), nil
	}
	if u.videoTarget != "" {
		return u.videoTarget, nil
	}

	names, err := u.store.Collections()
	if err != nil {
		return "", err
	}
	var videos []string
	for _, name := range names {
		if strings.HasPrefix(name, "video:") {
			videos = append(videos, name)
		}
	}
	if len(videos) == 0 {
		return "", nil
	}
	sort.Strings(videos)
	return videos[len(videos)-1], nil
}

// keywordFallback scores stored chunk texts lexically against the
// question when semantic search came back empty.
func (u *AskUseCase) keywordFallback(collection, question string) (domain.RetrievalResult, error) {
	texts, err := u.store.Texts(collection)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	if len(texts) == 0 {
		return domain.RetrievalResult{}, nil
	}

	scored := u.tokenizer.KeywordScore(strings.Join(texts, "\n"), question, u.topK)
	var result domain.RetrievalResult
	for _, line := range scored {
		result.Chunks = append(result.Chunks, domain.Chunk{
			Collection: collection,
			Text:       line.Line,
		})
		result.Scores = append(result.Scores, float64(line.Score))
	}
	return result, nil
}

func (u *AskUseCase) generate(mode domain.Mode, question string, history []domain.Exchange, grounding domain.RetrievalResult, source string) (*Answer, error) {
	system := modeInstructions[mode]
	needsContext := mode != domain.ModeNormal
	if needsContext && grounding.Empty() {
		system = noContextInstruction
	}

	var user strings.Builder
	if !grounding.Empty() {
		var parts []string
		for _, chunk := range grounding.Chunks {
			parts = append(parts, chunk.Text)
		}
		user.WriteString("Context:\n")
		user.WriteString(truncateRunes(strings.Join(parts, "\n\n"), u.maxPromptLen))
		user.WriteString("\n\n")
	}
	user.WriteString("Question: ")
	user.WriteString(question)

	messages := historyMessages(history)
	messages = append(messages, port.Message{Role: "user", Content: user.String()})

	reply, err := u.llm.GenerateWithSystem(system, messages)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Answer:    formatReply(u.llm.ModelName(), reply),
		Grounding: grounding,
		Source:    source,
	}, nil
}

func (u *AskUseCase) askTabular(question string, history []domain.Exchange) (*Answer, error) {
	schema, ok, err := u.tabularStore.Schema()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Answer{
			Answer: formatReply(u.llm.ModelName(), "No dataset is loaded. Ingest a CSV file first."),
			Source: "sql",
		}, nil
	}

	result, err := u.compiler.CompileAndRun(question, schema, history)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Answer: formatReply(u.llm.ModelName(), renderTabular(result)),
		Source: "sql",
	}, nil
}

func historyMessages(history []domain.Exchange) []port.Message {
	var messages []port.Message
	for _, ex := range history {
		messages = append(messages,
			port.Message{Role: "user", Content: ex.Question},
			port.Message{Role: "assistant", Content: ex.Answer},
		)
	}
	return messages
}

func formatReply(model, reply string) string {
	return fmt.Sprintf("[%s] %s", model, strings.TrimSpace(reply))
}

// renderTabular formats an executed query as the SQL, the row count and
// an aligned text table.
func renderTabular(result domain.TabularResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SQL: %s\n", result.SQL)
	fmt.Fprintf(&b, "%d row(s)\n", len(result.Rows))
	if len(result.Columns) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	for _, row := range result.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		b.WriteString("\n")
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
	}
	writeRow(result.Columns)
	b.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	for _, row := range result.Rows {
		writeRow(row)
	}
	return b.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
