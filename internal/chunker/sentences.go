package chunker

import (
	"regexp"
	"strings"
)

var (
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd = regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`)
)

// SplitSentences breaks text into sentences. Paragraph breaks always end a
// sentence, line breaks inside a paragraph are folded into spaces, and
// fragments shorter than minChars are merged into the next sentence (or the
// previous one at the end of the text).
func SplitSentences(text string, minChars int) []string {
	var raw []string
	for _, paragraph := range paragraphRe.Split(text, -1) {
		paragraph = strings.Join(strings.Fields(paragraph), " ")
		if paragraph == "" {
			continue
		}
		start := 0
		for _, loc := range sentenceEnd.FindAllStringIndex(paragraph+" ", -1) {
			end := loc[1]
			if end > len(paragraph) {
				end = len(paragraph)
			}
			if s := strings.TrimSpace(paragraph[start:end]); s != "" {
				raw = append(raw, s)
			}
			start = end
		}
		if start < len(paragraph) {
			if s := strings.TrimSpace(paragraph[start:]); s != "" {
				raw = append(raw, s)
			}
		}
	}
	return mergeShort(raw, minChars)
}

func mergeShort(sentences []string, minChars int) []string {
	if minChars <= 0 {
		return sentences
	}
	merged := make([]string, 0, len(sentences))
	pending := ""
	for _, s := range sentences {
		if pending != "" {
			s = pending + " " + s
			pending = ""
		}
		if len([]rune(s)) < minChars {
			pending = s
			continue
		}
		merged = append(merged, s)
	}
	if pending != "" {
		if len(merged) == 0 {
			merged = append(merged, pending)
		} else {
			merged[len(merged)-1] += " " + pending
		}
	}
	return merged
}
