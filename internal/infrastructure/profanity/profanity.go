package profanity

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

//go:embed words.json
var jsonData embed.FS

var separators = regexp.MustCompile(`[\s_.\-*/\\|]+`)

// Filter screens chat text against an embedded word list. Matching is done on
// a normalized form so common leetspeak obfuscations do not slip through.
type Filter struct {
	regex *regexp.Regexp
}

func NewFilter() (*Filter, error) {
	words, err := loadBannedWords()
	if err != nil {
		return nil, err
	}

	return &Filter{regex: buildMasterRegex(words)}, nil
}

func (f *Filter) ContainsProfanity(text string) bool {
	if text == "" {
		return false
	}
	return f.regex.MatchString(normalizeText(text))
}

func loadBannedWords() ([]string, error) {
	data, err := jsonData.ReadFile("words.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded word list: %w", err)
	}

	var bannedWords []string
	if err := json.Unmarshal(data, &bannedWords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal word list: %w", err)
	}
	return bannedWords, nil
}

func normalizeText(text string) string {
	s := strings.ToLower(text)

	// Undo the usual character substitutions in one pass
	s = strings.NewReplacer(
		"@", "a", "4", "a",
		"3", "e", "€", "e",
		"1", "i", "!", "i", "|", "i",
		"0", "o",
		"$", "s", "5", "s",
		"7", "t", "+", "t",
	).Replace(s)

	return separators.ReplaceAllString(s, " ")
}

func buildMasterRegex(words []string) *regexp.Regexp {
	patterns := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}

		// Allow repeated letters and separators inside a word:
		// "crap" also matches "craap" and "c.r.a.p"
		var sb strings.Builder
		for i, r := range word {
			if i > 0 {
				sb.WriteString(`[^\p{L}]*`)
			}
			sb.WriteString(regexp.QuoteMeta(string(r)))
			sb.WriteString("+")
		}
		patterns = append(patterns, sb.String())
	}

	expression := `(?:^|\W)(` + strings.Join(patterns, "|") + `)(?:$|\W)`
	return regexp.MustCompile(expression)
}
