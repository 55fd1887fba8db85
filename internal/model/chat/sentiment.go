package chat

import "strings"

// Label is the polarity assigned to a user utterance.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Labels lists the polarity labels in display order.
var Labels = []Label{Positive, Negative, Neutral}

// ParseLabel normalises raw to a known label.
func ParseLabel(raw string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case Positive:
		return Positive, true
	case Negative:
		return Negative, true
	case Neutral:
		return Neutral, true
	default:
		return Neutral, false
	}
}

// Sentiment is the structured judgment attached to a user turn. An empty Emotion means none
// was detected. RawResponse holds the producer output only when it could not be parsed.
type Sentiment struct {
	Label       Label   `json:"sentiment"`
	Confidence  float64 `json:"confidence"`
	Emotion     string  `json:"emotion,omitempty"`
	Explanation string  `json:"explanation"`
	RawResponse string  `json:"raw_response,omitempty"`
}

// HasEmotion reports whether an emotion tag is present.
func (s Sentiment) HasEmotion() bool {
	return strings.TrimSpace(s.Emotion) != ""
}

// Stats is a running tally of sentiment labels across user turns.
type Stats struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Add counts one label.
func (s *Stats) Add(label Label) {
	switch label {
	case Positive:
		s.Positive++
	case Negative:
		s.Negative++
	default:
		s.Neutral++
	}
}

// Total returns the number of counted labels.
func (s Stats) Total() int {
	return s.Positive + s.Negative + s.Neutral
}
