package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// MemberSimilarity is the lowest Jaro-Winkler similarity at which two normalized
// names are considered the same member.
const MemberSimilarity = 0.9

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// FindMember returns the index of the name in names that matches target, first
// by exact normalized equality, then by the highest similarity of at least
// MemberSimilarity. It returns -1 when nothing matches.
func FindMember(target string, names []string) int {
	target = NormalizeName(target)
	if target == "" {
		return -1
	}

	normalized := make([]string, len(names))
	for i, name := range names {
		normalized[i] = NormalizeName(name)
		if normalized[i] == target {
			return i
		}
	}

	best := -1
	var bestSimilarity float64
	for i, name := range normalized {
		similarity := matchr.JaroWinkler(target, name, false)
		if similarity >= MemberSimilarity && similarity > bestSimilarity {
			best = i
			bestSimilarity = similarity
		}
	}
	return best
}
