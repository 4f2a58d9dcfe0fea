package port

// Segment is one time-stamped span of transcribed speech.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Transcriber converts spoken audio into time-stamped text segments.
// Video containers are accepted as-is; the audio track is the backend's
// concern.
type Transcriber interface {
	Transcribe(media []byte, filename string) ([]Segment, error)
}
