package topics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/memhook/internal/models"
)

func TestKeywords_FiltersAndDedupes(t *testing.T) {
	got := Keywords("Please fix the Stripe webhook, the STRIPE webhook fails on 404 in v2 of db!")
	require.Equal(t, []string{"fix", "stripe", "webhook", "fails"}, got)
}

func TestKeywords_EmptyAndNoise(t *testing.T) {
	require.Empty(t, Keywords(""))
	require.Empty(t, Keywords("ok"))
	require.Empty(t, Keywords("12345 678 the and"))
}

func TestScore_SubstringMatchCountsOncePerKeyword(t *testing.T) {
	index := []models.TopicIndexEntry{
		{Subject: "payments", Keywords: []string{"stripe", "payments"}, AvgImportance: 7},
	}
	matches := Score([]string{"stripe", "webhook"}, index)
	require.Len(t, matches, 1)
	require.Equal(t, 1, matches[0].Matches)
	require.InDelta(t, 7.0, matches[0].Score, 0.0001)
}

func TestScore_ContainmentBothWaysAndOrdering(t *testing.T) {
	index := []models.TopicIndexEntry{
		{Subject: "auth", Keywords: []string{"oauth", "login"}, AvgImportance: 2},
		{Subject: "db", Keywords: []string{"postgresql", "migrations"}, AvgImportance: 5},
		{Subject: "none", Keywords: []string{"kubernetes"}, AvgImportance: 9},
		{Subject: "empty", Keywords: []string{"", "  "}, AvgImportance: 9},
	}
	// "auth" is contained in "oauth"; "postgresql" contains "postgres"; "migration" is in "migrations".
	matches := Score([]string{"auth", "postgres", "migration"}, index)
	require.Len(t, matches, 2)
	require.Equal(t, "db", matches[0].Subject)
	require.Equal(t, 2, matches[0].Matches)
	require.InDelta(t, 10.0, matches[0].Score, 0.0001)
	require.Equal(t, "auth", matches[1].Subject)
}

func TestSameTopics(t *testing.T) {
	require.True(t, SameTopics([]string{"a", "b"}, []string{"b", "a"}))
	require.False(t, SameTopics([]string{"a", "b"}, []string{"a"}))
	require.False(t, SameTopics([]string{"a"}, nil))
	require.False(t, SameTopics(nil, nil))
}

var now = time.Unix(1_800_000_000, 0)

func freshCache() *models.TopicCache {
	return &models.TopicCache{
		Timestamp: now.Add(-time.Hour).Unix(),
		ProjectID: "p",
		Topics: []models.TopicIndexEntry{
			{Subject: "payments", Keywords: []string{"stripe", "webhook", "billing"}, AvgImportance: 6},
			{Subject: "deploy", Keywords: []string{"docker", "k8s"}, AvgImportance: 4},
		},
	}
}

const message = "the stripe webhook keeps failing for annual billing customers"

func TestEvaluate_FiresWhenAllGatesPass(t *testing.T) {
	marker := &models.SessionMarker{Timestamp: now.Unix()}
	plan, skip := Evaluate(marker, message, freshCache(), now, DefaultPolicy())
	require.Empty(t, skip)
	require.Equal(t, []string{"payments"}, plan.Topics)
	require.Equal(t, message, plan.Query)
}

func TestEvaluate_Gates(t *testing.T) {
	p := DefaultPolicy()
	fresh := &models.SessionMarker{Timestamp: now.Unix()}

	_, skip := Evaluate(nil, message, freshCache(), now, p)
	require.Equal(t, SkipNoMarker, skip)

	recent := &models.SessionMarker{LastSmartRecall: now.Add(-time.Minute).Unix()}
	_, skip = Evaluate(recent, message, freshCache(), now, p)
	require.Equal(t, SkipCooldown, skip)

	_, skip = Evaluate(fresh, "ok", freshCache(), now, p)
	require.Equal(t, SkipShortMessage, skip)

	_, skip = Evaluate(fresh, "the the the the the the the the the the stripe", freshCache(), now, p)
	require.Equal(t, SkipFewKeywords, skip)

	_, skip = Evaluate(fresh, message, nil, now, p)
	require.Equal(t, SkipNoCache, skip)

	stale := freshCache()
	stale.Timestamp = now.Add(-25 * time.Hour).Unix()
	_, skip = Evaluate(fresh, message, stale, now, p)
	require.Equal(t, SkipNoCache, skip)

	_, skip = Evaluate(fresh, "completely unrelated question about gardening tomatoes", freshCache(), now, p)
	require.Equal(t, SkipNoMatch, skip)

	weak := freshCache()
	weak.Topics[0].AvgImportance = 0.1
	_, skip = Evaluate(fresh, message, weak, now, p)
	require.Equal(t, SkipLowScore, skip)
}

func TestEvaluate_NoveltyBlocksRepeatAfterCooldown(t *testing.T) {
	p := DefaultPolicy()
	marker := &models.SessionMarker{Timestamp: now.Unix()}

	plan, skip := Evaluate(marker, message, freshCache(), now, p)
	require.Empty(t, skip)

	marker.LastSmartRecall = now.Unix()
	marker.LastSmartTopics = plan.Topics

	later := now.Add(p.Cooldown + time.Second)
	_, skip = Evaluate(marker, message, freshCache(), later, p)
	require.Equal(t, SkipSameTopics, skip)
}

func TestEvaluate_TruncatesQuery(t *testing.T) {
	p := DefaultPolicy()
	p.MaxQueryChars = 40
	long := message + " " + strings.Repeat("stripe billing ", 50)
	plan, skip := Evaluate(&models.SessionMarker{}, long, freshCache(), now, p)
	require.Empty(t, skip)
	require.Len(t, []rune(plan.Query), 40)
}
