package classification

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSuggestThreshold is the minimum similarity score for a suggestion.
const DefaultSuggestThreshold = 60

// Suggestion proposes a group for an unknown label based on the closest
// mapped label. Suggestions are advisory and never applied automatically.
type Suggestion struct {
	Label    string `json:"label"`
	Match    string `json:"match"`
	Group    Group  `json:"group"`
	Score    int    `json:"score"`
	Distance int    `json:"distance"`
}

// Suggest returns the best mapped label for each unknown label scoring at
// least threshold. Labels without a good match are omitted.
func (s *Snapshot) Suggest(unknown []string, threshold int) []Suggestion {
	if s == nil || len(s.Mapping) == 0 {
		return nil
	}

	candidates := s.Labels()
	var out []Suggestion
	for _, label := range unknown {
		norm := normalizeLabel(label)

		var best *Suggestion
		for _, candidate := range candidates {
			score := similarity(norm, normalizeLabel(candidate))
			if score < threshold || (best != nil && score <= best.Score) {
				continue
			}
			best = &Suggestion{
				Label:    label,
				Match:    candidate,
				Group:    s.Mapping[candidate],
				Score:    score,
				Distance: fuzzy.LevenshteinDistance(norm, normalizeLabel(candidate)),
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// similarity scores two normalized labels from 0 to 100 using containment,
// Levenshtein distance and subsequence ranking, whichever is highest.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	if strings.Contains(a, b) {
		return 75 + 25*len(b)/len(a)
	}
	if strings.Contains(b, a) {
		return 75 + 25*len(a)/len(b)
	}

	maxLen := max(len(a), len(b))
	distance := fuzzy.LevenshteinDistance(a, b)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	rankScore := 0
	if rank := fuzzy.RankMatchFold(b, a); rank >= 0 && rank < len(a) {
		rankScore = 60 - rank*40/len(a)
	}

	return max(levenshteinScore, rankScore)
}
