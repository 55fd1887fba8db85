package sentiment

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// judgment mirrors the object the producer is asked to return.
type judgment struct {
	Sentiment   string  `json:"sentiment" jsonschema:"enum=positive,enum=negative,enum=neutral"`
	Confidence  float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Emotion     *string `json:"emotion" jsonschema:"description=A single lowercase emotion word or null when none is detected"`
	Explanation string  `json:"explanation" jsonschema:"description=Brief explanation of the analysis"`
}

var (
	schemaOnce sync.Once
	schemaText string
)

// judgmentSchema renders the JSON Schema of the expected object, or "" if it cannot be built.
func judgmentSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			Anonymous:                 true,
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		schema := reflector.Reflect(&judgment{})
		schema.Version = ""
		b, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return
		}
		schemaText = string(b)
	})
	return schemaText
}

// BuildPrompt asks for a JSON object with exactly the keys sentiment, confidence, emotion and
// explanation.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Task: Analyze the sentiment and emotion in the following text.\n\n")
	fmt.Fprintf(&b, "Text to analyze: %q\n\n", text)
	b.WriteString("Instructions:\n")
	b.WriteString("1. Determine if the sentiment is positive, negative, or neutral\n")
	b.WriteString("2. Identify a specific emotion if present (e.g., happy, sad, angry, afraid, surprised, disgusted)\n")
	b.WriteString("3. Provide a brief explanation for your analysis\n")
	b.WriteString("4. Rate your confidence in this analysis on a scale of 0.0 to 1.0\n\n")
	b.WriteString("Format your response as a valid JSON object with exactly these keys:\n")
	b.WriteString(`{"sentiment": "positive/negative/neutral", "confidence": 0.0-1.0, "emotion": "specific emotion or null if none detected", "explanation": "brief explanation of your analysis"}`)
	b.WriteString("\n\n")
	if schema := judgmentSchema(); schema != "" {
		b.WriteString("The object must validate against this JSON Schema:\n")
		b.WriteString(schema)
		b.WriteString("\n\n")
	}
	b.WriteString("Return ONLY the JSON object, nothing else.")
	return b.String()
}
