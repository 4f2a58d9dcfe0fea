package normalizer

import (
	"fmt"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

const visionPrompt = "Describe this image in detail. Extract text, layout, objects, and data."

// Image normalizes an image into a single text unit by asking a vision
// model to describe it. There is no local fallback: when the vision
// model is unreachable the image is skipped with an error the caller
// can report per file.
type Image struct {
	vision port.Vision
}

func NewImage(vision port.Vision) *Image {
	return &Image{vision: vision}
}

func (n *Image) Normalize(data []byte, filename string) ([]port.Unit, []string, error) {
	description, err := n.vision.Describe(visionPrompt, data)
	if err != nil {
		return nil, nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil, fmt.Errorf("vision model returned no description for %s", filename)
	}

	text := fmt.Sprintf("Image: %s\n\nAnalysis:\n%s", filename, description)
	unit := port.Unit{
		Text:   text,
		Source: domain.SourceRef{FileID: FileID(data)},
	}
	return []port.Unit{unit}, nil, nil
}
