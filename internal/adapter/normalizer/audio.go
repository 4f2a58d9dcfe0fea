package normalizer

import (
	"fmt"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// Audio normalizes an audio file into one text unit per transcription
// segment, preserving segment timestamps so answers can cite a time
// range in the recording.
type Audio struct {
	transcriber port.Transcriber
}

func NewAudio(transcriber port.Transcriber) *Audio {
	return &Audio{transcriber: transcriber}
}

func (n *Audio) Normalize(data []byte, filename string) ([]port.Unit, []string, error) {
	segments, err := n.transcriber.Transcribe(data, filename)
	if err != nil {
		return nil, nil, err
	}

	fileID := FileID(data)
	var units []port.Unit
	var diags []string
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			diags = append(diags, fmt.Sprintf("segment %d: empty transcription", i))
			continue
		}
		units = append(units, port.Unit{
			Text: text,
			Source: domain.SourceRef{
				FileID:    fileID,
				Segment:   i,
				StartTime: seg.Start,
				EndTime:   seg.End,
			},
		})
	}

	if len(units) == 0 {
		return nil, diags, fmt.Errorf("no speech detected in %s", filename)
	}
	return units, diags, nil
}
