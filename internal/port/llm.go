package port

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates text based on the prompt.
	Generate(prompt string) (string, error)

	// GenerateWithSystem generates text with a system prompt and prior
	// conversation messages.
	GenerateWithSystem(systemPrompt string, messages []Message) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Vision describes an image in natural language, including any textual
// content found in it.
type Vision interface {
	Describe(prompt string, imageBytes []byte) (string, error)
}

// Message is one turn of a chat conversation sent to the model.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}
