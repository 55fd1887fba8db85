// Package sentiment turns raw classifier output into a chat.Sentiment. Parsing degrades from a
// strict JSON object, through per-key defaults, to a keyword scan of the raw text.
package sentiment

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/zhouzirui/sentichat/internal/model/chat"
)

// Fixed explanations and confidences used by the degrade path.
const (
	DefaultConfidence    = 0.5
	EmptyInputConfidence = 1.0
	FailureConfidence    = 0.0

	ExplanationEmptyInput   = "Empty input"
	ExplanationNoResponse   = "Failed to get response"
	ExplanationMissing      = "No explanation provided"
	ExplanationParseFailure = "Failed to parse JSON response"
	explanationErrorPrefix  = "Error: "
)

// Tier reports which stage of Parse produced the result.
type Tier int

const (
	// TierStructured means the text was a JSON object; missing keys were defaulted.
	TierStructured Tier = iota
	// TierRepaired means JSON parsing failed and the keyword scan was used.
	TierRepaired
)

// String returns the tier name.
func (t Tier) String() string {
	if t == TierRepaired {
		return "repaired"
	}
	return "structured"
}

var errNotObject = errors.New("classifier output is not a JSON object")

// Parse converts raw producer output into a Sentiment.
func Parse(raw string) chat.Sentiment {
	s, _ := ParseWithTier(raw)
	return s
}

// ParseWithTier is Parse that also reports which tier produced the result.
func ParseWithTier(raw string) (chat.Sentiment, Tier) {
	if s, err := parseStructured(StripCodeFence(raw)); err == nil {
		return s, TierStructured
	}
	return repair(raw), TierRepaired
}

// EmptyInput is the result for an empty utterance.
func EmptyInput() chat.Sentiment {
	return chat.Sentiment{
		Label:       chat.Neutral,
		Confidence:  EmptyInputConfidence,
		Explanation: ExplanationEmptyInput,
	}
}

// NoResponse is the result when the producer returned nothing.
func NoResponse() chat.Sentiment {
	return chat.Sentiment{
		Label:       chat.Neutral,
		Confidence:  DefaultConfidence,
		Explanation: ExplanationNoResponse,
	}
}

// Failure is the result when classification failed outright.
func Failure(err error) chat.Sentiment {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return chat.Sentiment{
		Label:       chat.Neutral,
		Confidence:  FailureConfidence,
		Explanation: explanationErrorPrefix + msg,
	}
}

// StripCodeFence removes a leading ```json or ``` marker and a trailing ``` marker.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseStructured(text string) (chat.Sentiment, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return chat.Sentiment{}, err
	}
	if fields == nil {
		// literal null
		return chat.Sentiment{}, errNotObject
	}

	result := chat.Sentiment{
		Label:       chat.Neutral,
		Confidence:  DefaultConfidence,
		Explanation: ExplanationMissing,
	}

	if raw, ok := fields["sentiment"]; ok {
		var label string
		if json.Unmarshal(raw, &label) == nil {
			result.Label, _ = chat.ParseLabel(label)
		}
	}

	if raw, ok := fields["confidence"]; ok {
		var confidence float64
		if json.Unmarshal(raw, &confidence) == nil {
			result.Confidence = clamp(confidence)
		}
	}

	if raw, ok := fields["emotion"]; ok {
		var emotion *string
		if json.Unmarshal(raw, &emotion) == nil && emotion != nil {
			result.Emotion = strings.TrimSpace(*emotion)
		}
	}

	if raw, ok := fields["explanation"]; ok {
		var explanation string
		if json.Unmarshal(raw, &explanation) == nil {
			result.Explanation = explanation
		}
	}

	return result, nil
}

func repair(raw string) chat.Sentiment {
	lower := strings.ToLower(raw)

	// "positive" is checked first, so text mentioning both resolves to positive.
	label := chat.Neutral
	if strings.Contains(lower, "positive") {
		label = chat.Positive
	} else if strings.Contains(lower, "negative") {
		label = chat.Negative
	}

	return chat.Sentiment{
		Label:       label,
		Confidence:  DefaultConfidence,
		Emotion:     MatchEmotion(lower),
		Explanation: ExplanationParseFailure,
		RawResponse: raw,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
