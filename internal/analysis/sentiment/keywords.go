package sentiment

import "strings"

type emotionBucket struct {
	Emotion  string
	Keywords []string
}

// emotionBuckets is scanned in order; the first bucket with any substring match wins.
var emotionBuckets = []emotionBucket{
	{Emotion: "happy", Keywords: []string{"happy", "joy", "delighted", "pleased", "glad", "excited"}},
	{Emotion: "sad", Keywords: []string{"sad", "unhappy", "depressed", "down", "miserable", "heartbroken"}},
	{Emotion: "angry", Keywords: []string{"angry", "mad", "furious", "annoyed", "irritated", "frustrated"}},
	{Emotion: "afraid", Keywords: []string{"afraid", "scared", "frightened", "terrified", "anxious", "worried"}},
	{Emotion: "surprised", Keywords: []string{"surprised", "shocked", "amazed", "astonished", "stunned"}},
	{Emotion: "disgusted", Keywords: []string{"disgusted", "revolted", "repulsed", "sickened"}},
}

// Emotions lists the emotion categories known to the keyword scan, in scan order.
func Emotions() []string {
	names := make([]string, 0, len(emotionBuckets))
	for _, b := range emotionBuckets {
		names = append(names, b.Emotion)
	}
	return names
}

// MatchEmotion returns the first emotion whose keywords occur in text, or "".
func MatchEmotion(text string) string {
	normalized := strings.ToLower(text)
	for _, bucket := range emotionBuckets {
		for _, word := range bucket.Keywords {
			if strings.Contains(normalized, word) {
				return bucket.Emotion
			}
		}
	}
	return ""
}
