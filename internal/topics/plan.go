package topics

import (
	"time"

	"github.com/dotcommander/memhook/internal/models"
)

// Skip names the gate that stopped a smart recall. The empty Skip means "fire".
type Skip string

const (
	SkipNoMarker     Skip = "no_marker"
	SkipCooldown     Skip = "cooldown"
	SkipShortMessage Skip = "short_message"
	SkipFewKeywords  Skip = "few_keywords"
	SkipNoCache      Skip = "no_topic_cache"
	SkipNoMatch      Skip = "no_match"
	SkipLowScore     Skip = "low_score"
	SkipSameTopics   Skip = "same_topics"
)

// Plan is what a firing smart recall sends and records.
type Plan struct {
	Query    string
	Keywords []string
	Matches  []Match
	// Topics becomes the marker's novelty baseline once the recall succeeds.
	Topics []string
}

// CheckCooldown applies the marker and cooldown gates, which need no transcript read.
func CheckCooldown(marker *models.SessionMarker, now time.Time, p Policy) Skip {
	if marker == nil {
		return SkipNoMarker
	}
	if now.Sub(time.Unix(marker.LastSmartRecall, 0)) < p.Cooldown {
		return SkipCooldown
	}
	return ""
}

// Evaluate runs every gate in order and returns the plan when all pass.
func Evaluate(marker *models.SessionMarker, message string, cache *models.TopicCache, now time.Time, p Policy) (Plan, Skip) {
	if skip := CheckCooldown(marker, now, p); skip != "" {
		return Plan{}, skip
	}
	if len([]rune(message)) < p.MinMessageChars {
		return Plan{}, SkipShortMessage
	}

	keywords := Keywords(message)
	if len(keywords) < p.MinKeywords {
		return Plan{}, SkipFewKeywords
	}

	if cache == nil || len(cache.Topics) == 0 || now.Sub(time.Unix(cache.Timestamp, 0)) > p.CacheMaxAge {
		return Plan{}, SkipNoCache
	}

	matches := Score(keywords, cache.Topics)
	if len(matches) == 0 {
		return Plan{}, SkipNoMatch
	}
	if matches[0].Score < p.MinScore {
		return Plan{}, SkipLowScore
	}

	top := TopSubjects(matches, p.MaxTopics)
	if SameTopics(top, marker.LastSmartTopics) {
		return Plan{}, SkipSameTopics
	}

	query := message
	if r := []rune(query); len(r) > p.MaxQueryChars {
		query = string(r[:p.MaxQueryChars])
	}
	return Plan{Query: query, Keywords: keywords, Matches: matches, Topics: top}, ""
}
