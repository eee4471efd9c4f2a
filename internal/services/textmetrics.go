package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// Lightweight lexical analysis of transcript text. Acoustic metrics
// (latency, pauses) come from the client; the server derives lexical
// ones from the words alone.

var pronouns = map[string]struct{}{
	// Catalan
	"jo": {}, "tu": {}, "ell": {}, "ella": {}, "nosaltres": {},
	"vosaltres": {}, "ells": {}, "elles": {}, "em": {}, "et": {},
	"es": {}, "ens": {}, "us": {}, "li": {}, "ho": {}, "hi": {}, "en": {},
	"aquest": {}, "aquesta": {}, "allò": {},
	// English, for mixed-language sessions
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {},
	"they": {}, "me": {}, "him": {}, "her": {}, "them": {},
	"this": {}, "that": {},
}

var hesitationFillers = map[string]struct{}{
	"eh": {}, "ehh": {}, "ehm": {}, "mmm": {}, "mm": {},
	"uh": {}, "um": {}, "uhm": {}, "ah": {}, "hmm": {},
}

// AnalyzeText derives lexical metrics from a transcript fragment:
// idea density (distinct-token ratio on the 0..5 scale the strategies
// expect), a noun-to-pronoun ratio proxy, and a hesitation count.
func AnalyzeText(text string) map[string]float64 {
	tokens := tokenize(text)
	metrics := map[string]float64{
		types.MetricIdeaDensity: 0,
		types.MetricPNRatio:     0,
		"hesitations":           0,
		"token_count":           float64(len(tokens)),
	}
	if len(tokens) == 0 {
		return metrics
	}

	distinct := make(map[string]struct{}, len(tokens))
	pronounCount := 0
	contentCount := 0
	hesitations := 0
	for _, token := range tokens {
		distinct[token] = struct{}{}
		if _, ok := hesitationFillers[token]; ok {
			hesitations++
			continue
		}
		if _, ok := pronouns[token]; ok {
			pronounCount++
			continue
		}
		if len([]rune(token)) > 3 {
			contentCount++
		}
	}

	metrics[types.MetricIdeaDensity] = float64(len(distinct)) / float64(len(tokens)) * types.MaxDifficulty
	metrics[types.MetricPNRatio] = math.Min(types.MaxDifficulty,
		float64(contentCount)/math.Max(1, float64(pronounCount)))
	metrics["hesitations"] = float64(hesitations)
	return metrics
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
