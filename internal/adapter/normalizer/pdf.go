package normalizer

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// pageStrategy extracts per-page text from a PDF. A strategy that fails
// wholesale returns an error; a strategy that fails for one page leaves
// that page's text empty, and the next strategy is consulted for it.
type pageStrategy struct {
	name    string
	extract func(data []byte) ([]string, error)
}

// PDF normalizes PDF files into one text unit per page. Extraction
// tries an ordered chain of strategies, falling back to the next only
// for pages where the current one produced empty or garbled text;
// different pages may end up using different strategies.
type PDF struct {
	maxBytes   int
	strategies []pageStrategy
}

// NewPDF creates a PDF normalizer. maxSizeMB <= 0 disables the size cap.
func NewPDF(maxSizeMB int) *PDF {
	return &PDF{
		maxBytes: maxSizeMB * 1024 * 1024,
		strategies: []pageStrategy{
			{name: "plaintext", extract: extractPlainText},
			{name: "content", extract: extractContentText},
		},
	}
}

// Normalize extracts the pages of the PDF. Per-page failures become
// diagnostics and never abort the remaining pages; only a document
// where no page yields text at all is an error.
func (p *PDF) Normalize(data []byte, filename string) ([]port.Unit, []string, error) {
	if p.maxBytes > 0 && len(data) > p.maxBytes {
		return nil, nil, fmt.Errorf("PDF too large (> %d MB)", p.maxBytes/(1024*1024))
	}

	fileID := FileID(data)
	var diags []string

	// Run strategies lazily: the next one is only paid for when some
	// page still has no usable text.
	results := make([][]string, len(p.strategies))
	tried := make([]bool, len(p.strategies))
	pageTexts := func(i int) []string {
		if !tried[i] {
			tried[i] = true
			texts, err := p.strategies[i].extract(data)
			if err != nil {
				diags = append(diags, fmt.Sprintf("strategy %s: %v", p.strategies[i].name, err))
			}
			results[i] = texts
		}
		return results[i]
	}

	pageCount := 0
	for i := range p.strategies {
		if n := len(pageTexts(i)); n > 0 {
			pageCount = n
			break
		}
	}

	var units []port.Unit
	for page := 0; page < pageCount; page++ {
		text := ""
		for i := range p.strategies {
			texts := pageTexts(i)
			if page >= len(texts) {
				continue
			}
			if usableText(texts[page]) {
				text = texts[page]
				break
			}
		}
		if text == "" {
			diags = append(diags, fmt.Sprintf("page %d: no text extracted", page+1))
			continue
		}
		units = append(units, port.Unit{
			Text:   strings.TrimSpace(text),
			Source: domain.SourceRef{FileID: fileID, Page: page + 1},
		})
	}

	// Last resort for documents whose structure could not be parsed at
	// all: scavenge printable text from the raw content streams.
	if len(units) == 0 {
		if text := scavengeStreams(data); usableText(text) {
			diags = append(diags, "structure unreadable, used raw stream text")
			units = append(units, port.Unit{
				Text:   text,
				Source: domain.SourceRef{FileID: fileID, Page: 1},
			})
		}
	}

	if len(units) == 0 {
		return nil, diags, fmt.Errorf("no text could be extracted from %s", filename)
	}
	return units, diags, nil
}

// extractPlainText uses the reader's font-aware plain text rendering.
func extractPlainText(data []byte) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	texts = make([]string, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// extractContentText walks the page content text runs directly, which
// recovers pages whose font dictionaries confuse the plain text path.
func extractContentText(data []byte) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	texts = make([]string, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		var b strings.Builder
		for _, t := range page.Content().Text {
			b.WriteString(t.S)
		}
		texts[i-1] = b.String()
	}
	return texts, nil
}

// scavengeStreams inflates every stream object and keeps printable
// runs, a best-effort salvage for structurally broken files.
func scavengeStreams(data []byte) string {
	var out strings.Builder
	rest := data
	for {
		idx := bytes.Index(rest, []byte("stream"))
		if idx < 0 {
			break
		}
		rest = rest[idx+len("stream"):]
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			break
		}
		raw := bytes.TrimLeft(rest[:end], "\r\n")
		rest = rest[end:]

		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			continue
		}
		inflated, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			continue
		}
		out.WriteString(printableRuns(inflated))
	}
	return strings.TrimSpace(out.String())
}

// printableRuns keeps runs of at least four consecutive printable
// characters, dropping binary noise.
func printableRuns(data []byte) string {
	const minRun = 4
	var out, run strings.Builder
	flush := func() {
		if run.Len() >= minRun {
			out.WriteString(run.String())
			out.WriteString(" ")
		}
		run.Reset()
	}
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			run.WriteByte(b)
		} else {
			flush()
		}
	}
	flush()
	return out.String()
}

// usableText reports whether extracted text is non-empty and not
// predominantly non-printable garbage.
func usableText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	printable := 0
	total := 0
	for _, r := range trimmed {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable)/float64(total) >= 0.7
}

// FileID derives a stable content hash used for idempotent ingestion:
// re-ingesting identical bytes maps to the same ID.
func FileID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
