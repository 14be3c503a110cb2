package scoring

import "strings"

// FeatureSet holds the lexical signals the heuristic scorer reads.
type FeatureSet struct {
	WordCount           int
	SentenceCount       int
	AvgWordsPerSentence float64
	LowercaseText       string
	KeywordHits         map[string]bool
}

// Has reports whether a keyword was present in the text.
func (f FeatureSet) Has(keyword string) bool {
	if hit, ok := f.KeywordHits[keyword]; ok {
		return hit
	}
	return strings.Contains(f.LowercaseText, keyword)
}

// HasAny reports whether any of the keywords was present.
func (f FeatureSet) HasAny(keywords ...string) bool {
	for _, k := range keywords {
		if f.Has(k) {
			return true
		}
	}
	return false
}

// ExtractFeatures never fails; empty input yields zero words and one sentence.
func ExtractFeatures(text string) FeatureSet {
	lower := strings.ToLower(text)
	words := len(strings.Fields(text))
	// Split always returns at least one segment, so sentences >= 1.
	sentences := len(strings.Split(text, "."))

	hits := make(map[string]bool, len(trackedKeywords))
	for _, k := range trackedKeywords {
		hits[k] = strings.Contains(lower, k)
	}

	return FeatureSet{
		WordCount:           words,
		SentenceCount:       sentences,
		AvgWordsPerSentence: float64(words) / float64(sentences),
		LowercaseText:       lower,
		KeywordHits:         hits,
	}
}
