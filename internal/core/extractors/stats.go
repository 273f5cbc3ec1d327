package extractors

import (
	"strings"
	"unicode/utf8"
)

// decodeText reads bytes as UTF-8, dropping invalid sequences.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func textStats(meta map[string]any, text string) {
	meta["char_count"] = utf8.RuneCountInString(text)
	meta["word_count"] = len(strings.Fields(text))
}
