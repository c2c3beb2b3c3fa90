package fsmedia

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folderMatchThreshold is the minimum Jaro-Winkler similarity for a fuzzy
// folder-name match. Below it a folder reference simply doesn't resolve.
const folderMatchThreshold = 0.88

// ResolveFolder maps a space-joined folder name to the local id of the best
// matching top-level directory. Matching folds case, diacritics and word
// order ("ambient music" finds "Music/Ambient"-style layouts one level
// deep via exact child names, otherwise fuzzy top-level match).
func (a *Adapter) ResolveFolder(name string) (string, bool) {
	want := foldName(name)
	if want == "" {
		return "", false
	}

	tops := a.index.TopLevelDirs()

	// Exact folded match first, including two-level "<top>/<child>" names
	// built from re-ordered words ("ambient music" -> music/ambient).
	for _, top := range tops {
		if foldName(top) == want {
			return top, true
		}
	}
	words := strings.Fields(want)
	if len(words) > 1 {
		for _, top := range tops {
			ft := foldName(top)
			if !containsWord(words, ft) {
				continue
			}
			child := strings.Join(remove(words, ft), " ")
			for _, sub := range a.index.Subdirs(top) {
				if foldName(sub) == child {
					return top + "/" + sub, true
				}
			}
		}
	}

	// Fall back to fuzzy similarity against the top-level names.
	best, bestScore := "", 0.0
	for _, top := range tops {
		score := float64(edlib.JaroWinklerSimilarity(want, foldName(top)))
		if score > bestScore {
			best, bestScore = top, score
		}
	}
	if bestScore >= folderMatchThreshold {
		return best, true
	}
	return "", false
}

// foldName lowercases and strips diacritics for comparison.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

func remove(words []string, w string) []string {
	out := make([]string, 0, len(words))
	for _, x := range words {
		if x != w {
			out = append(out, x)
		}
	}
	return out
}
