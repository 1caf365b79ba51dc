package impact

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

const (
	maxSuggestions      = 3
	suggestionThreshold = 0.8
)

// suggest returns up to three indexed names most similar to query by
// Jaro-Winkler similarity, best first.
func suggest(query string, names []string) []string {
	q := strings.ToLower(query)
	type scored struct {
		name  string
		score float32
	}
	var matches []scored
	for _, name := range names {
		score, err := edlib.StringsSimilarity(q, strings.ToLower(name), edlib.JaroWinkler)
		if err != nil || score < suggestionThreshold {
			continue
		}
		matches = append(matches, scored{name, score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
