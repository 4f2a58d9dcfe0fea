package llm

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

const retryBackoff = 500 * time.Millisecond

// OllamaClient talks to a local Ollama server's /api/chat endpoint for
// both text generation and vision description.
type OllamaClient struct {
	model       string
	visionModel string
	baseURL     string
	client      *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// NewOllamaClient creates a client for the given chat and vision models.
func NewOllamaClient(model, visionModel, baseURL string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		model:       model,
		visionModel: visionModel,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// Generate generates text based on the prompt.
func (c *OllamaClient) Generate(prompt string) (string, error) {
	return c.GenerateWithSystem("", []port.Message{{Role: "user", Content: prompt}})
}

// GenerateWithSystem generates text with a system prompt and prior
// conversation messages. A failed call is retried once with backoff,
// then surfaced as ErrModelUnavailable.
func (c *OllamaClient) GenerateWithSystem(systemPrompt string, messages []port.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := c.chat(c.model, msgs)
	if err != nil {
		time.Sleep(retryBackoff)
		reply, err = c.chat(c.model, msgs)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return reply, nil
}

// Describe asks the vision model for a description of the image plus
// any textual content found in it.
func (c *OllamaClient) Describe(prompt string, imageBytes []byte) (string, error) {
	msgs := []chatMessage{{
		Role:    "user",
		Content: prompt,
		Images:  []string{base64.StdEncoding.EncodeToString(imageBytes)},
	}}

	reply, err := c.chat(c.visionModel, msgs)
	if err != nil {
		time.Sleep(retryBackoff)
		reply, err = c.chat(c.visionModel, msgs)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrVisionUnavailable, err)
	}
	if reply == "" {
		return "", fmt.Errorf("%w: vision model returned empty response", domain.ErrVisionUnavailable)
	}
	return reply, nil
}

func (c *OllamaClient) chat(model string, messages []chatMessage) (string, error) {
	reqBody := chatRequest{Model: model, Messages: messages, Stream: false}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("API error: %s", chatResp.Error)
	}
	return chatResp.Message.Content, nil
}

// ModelName returns the name of the generation model.
func (c *OllamaClient) ModelName() string {
	return c.model
}

// VisionModelName returns the name of the vision model.
func (c *OllamaClient) VisionModelName() string {
	return c.visionModel
}
