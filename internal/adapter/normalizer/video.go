package normalizer

import (
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// Video normalizes a video file by transcribing its audio track. The
// units it produces are identical in shape to audio units; the caller
// routes them into a per-video collection so each recording can be
// queried in isolation.
type Video struct {
	audio *Audio
}

func NewVideo(transcriber port.Transcriber) *Video {
	return &Video{audio: NewAudio(transcriber)}
}

func (n *Video) Normalize(data []byte, filename string) ([]port.Unit, []string, error) {
	return n.audio.Normalize(data, filename)
}
