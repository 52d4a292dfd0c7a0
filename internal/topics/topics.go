// Package topics is the local pre-filter for mid-session smart recall: it
// matches keywords from the newest user message against the cached topic index
// and decides whether a narrowly scoped recall is worth a remote call.
package topics

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dotcommander/memhook/internal/models"
)

// Policy holds the smart-recall heuristics. The defaults are tuned by hand
// and are exposed as configuration.
type Policy struct {
	Cooldown        time.Duration
	MinMessageChars int
	MinKeywords     int
	MinScore        float64
	CacheMaxAge     time.Duration
	Limit           int
	MaxChars        int
	MaxTopics       int
	MaxQueryChars   int
}

// DefaultPolicy returns the stock heuristics.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown:        180 * time.Second,
		MinMessageChars: 30,
		MinKeywords:     2,
		MinScore:        2,
		CacheMaxAge:     24 * time.Hour,
		Limit:           3,
		MaxChars:        1500,
		MaxTopics:       5,
		MaxQueryChars:   500,
	}
}

const minKeywordLen = 3

//nolint:gochecknoglobals // read-only lookup table
var stopWords = buildStopWords(`
	the and for are but not you all any can had her was one our out has him his how its
	may new now old see two way who did get got let put say she too use that this with
	have from they will would there their what about which when make like time just know
	take into year your good some could them than then look only come over think also back
	after work first well even want because these give most been were said each where
	does doing done here more much must very should shall might need needs please thanks
	thank okay yes yeah sure right onto upon via using used really actually maybe still
	again ever never always something anything nothing everything someone thing things
	stuff going gonna wanna able sorry hello hey help code`)

func buildStopWords(list string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		m[w] = struct{}{}
	}
	return m
}

// Keywords lowercases msg, splits on punctuation and whitespace, and drops
// short tokens, pure numbers, and stop words. Order of first appearance is kept.
func Keywords(msg string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range tokens {
		if len([]rune(tok)) < minKeywordLen || isNumeric(tok) {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Match is one scored topic.
type Match struct {
	Subject string
	Matches int
	Score   float64
}

// Score counts, per topic, how many keywords hit any topic keyword (equal, or
// either containing the other), at most once per keyword, and weights the count
// by the topic's average importance. Topics without a hit are dropped; the rest
// are ordered by descending score.
func Score(keywords []string, index []models.TopicIndexEntry) []Match {
	var out []Match
	for _, entry := range index {
		topicKeys := make([]string, 0, len(entry.Keywords))
		for _, k := range entry.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				topicKeys = append(topicKeys, k)
			}
		}

		hits := 0
		for _, kw := range keywords {
			for _, tk := range topicKeys {
				if kw == tk || strings.Contains(kw, tk) || strings.Contains(tk, kw) {
					hits++
					break
				}
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, Match{
			Subject: entry.Subject,
			Matches: hits,
			Score:   float64(hits) * entry.AvgImportance,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// TopSubjects returns the subjects of the first n matches.
func TopSubjects(matches []Match, n int) []string {
	if n > len(matches) {
		n = len(matches)
	}
	out := make([]string, 0, n)
	for _, m := range matches[:n] {
		out = append(out, m.Subject)
	}
	return out
}

// SameTopics reports whether a and b hold the same non-empty set of subjects.
func SameTopics(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
		other[s] = struct{}{}
	}
	return len(set) == len(other)
}
