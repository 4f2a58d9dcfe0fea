package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// WhisperClient transcribes audio and video through an OpenAI-compatible
// /v1/audio/transcriptions endpoint such as the one whisper.cpp's server
// exposes. Video containers are sent as-is; the server demuxes the
// audio track.
type WhisperClient struct {
	model   string
	baseURL string
	client  *http.Client
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewWhisperClient creates a transcription client. baseURL may name the
// server root or its /v1 prefix.
func NewWhisperClient(model, baseURL string, timeout time.Duration) *WhisperClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &WhisperClient{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Transcribe converts the media file into time-stamped text segments. A
// failed call is retried once, then surfaced as ErrModelUnavailable.
func (c *WhisperClient) Transcribe(media []byte, filename string) ([]port.Segment, error) {
	segments, err := c.request(media, filename)
	if err != nil {
		time.Sleep(500 * time.Millisecond)
		segments, err = c.request(media, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return segments, nil
}

func (c *WhisperClient) request(media []byte, filename string) ([]port.Segment, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return nil, fmt.Errorf("failed to write media: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if tr.Error != nil {
		return nil, fmt.Errorf("API error: %s", tr.Error.Message)
	}

	segments := make([]port.Segment, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		segments = append(segments, port.Segment{Text: s.Text, Start: s.Start, End: s.End})
	}
	// Servers without segment timestamps still return the full text.
	if len(segments) == 0 && tr.Text != "" {
		segments = append(segments, port.Segment{Text: tr.Text})
	}
	return segments, nil
}
