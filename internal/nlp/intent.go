package nlp

import (
	"math"
	"strings"
)

// Confidence constants. DefaultConfidenceNormalizer is the K in
// confidence = min(score/K, 1).
const (
	DefaultConfidenceNormalizer = 2.0

	matchedConfidenceFloor = 0.6
	priceHintConfidence    = 0.7
	defaultConfidence      = 0.5
	reviewCountBonus       = 2

	bestValueConfidence   = 0.8
	topRatedConfidence    = 0.8
	newArrivalsConfidence = 0.7
	bestsellerConfidence  = 0.8
)

var (
	superlativeWords = []string{"meilleur", "best", "top"}
	priceWords       = []string{"prix", "price"}
	ratedWords       = []string{"noté", "rated"}
	noveltyWords     = []string{"nouveau", "nouvelle", "new", "récent", "recent", "latest"}
	bestsellerWords  = []string{
		"bestseller", "best seller", "best-seller", "meilleure vente",
		"plus vendu", "top vente", "populaire", "tendance",
	}
)

// Classifier scores intent keyword groups over normalized text.
type Classifier struct {
	lib *Library
	k   float64
}

// NewClassifier returns a classifier using normalizer k. Non-positive values
// select DefaultConfidenceNormalizer.
func NewClassifier(lib *Library, k float64) *Classifier {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		k = DefaultConfidenceNormalizer
	}
	return &Classifier{lib: lib, k: k}
}

// Normalizer returns the K constant in use.
func (c *Classifier) Normalizer() float64 {
	return c.k
}

// Classify returns the intent of text and its confidence in [0,1].
//
// Each group scores one point per phrase contained in text. An extracted review count
// adds a fixed bonus to reviews_filter. The highest score wins, earlier
// groups winning ties. Without any score the query is a price filter when it
// carries a price hint and a plain product search otherwise. Override rules
// then run in order, each able to replace the previous result.
func (c *Classifier) Classify(text string, minReviews *int) (Intent, float64) {
	scores := make([]int, len(c.lib.intents))
	for i, g := range c.lib.intents {
		scores[i] = countContained(text, g.phrases)
		if minReviews != nil && g.intent == IntentReviewsFilter {
			scores[i] += reviewCountBonus
		}
	}

	best := -1
	for i, s := range scores {
		if s > 0 && (best < 0 || s > scores[best]) {
			best = i
		}
	}

	var (
		intent     Intent
		confidence float64
	)
	switch {
	case best >= 0:
		intent = c.lib.intents[best].intent
		confidence = math.Max(matchedConfidenceFloor, math.Min(float64(scores[best])/c.k, 1.0))
	case c.hasPriceHint(text):
		intent, confidence = IntentPriceFilter, priceHintConfidence
	default:
		intent, confidence = IntentProductSearch, defaultConfidence
	}

	return applyOverrides(text, intent, confidence)
}

func (c *Classifier) hasPriceHint(text string) bool {
	for _, h := range c.lib.priceHints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

func applyOverrides(text string, intent Intent, confidence float64) (Intent, float64) {
	superlative := containsAny(text, superlativeWords)
	if superlative && containsAny(text, priceWords) {
		intent, confidence = IntentBestValue, math.Max(confidence, bestValueConfidence)
	}
	if superlative && containsAny(text, ratedWords) {
		intent, confidence = IntentTopRated, math.Max(confidence, topRatedConfidence)
	}
	if containsAny(text, noveltyWords) {
		intent, confidence = IntentNewArrivals, math.Max(confidence, newArrivalsConfidence)
	}
	if containsAny(text, bestsellerWords) {
		intent, confidence = IntentBestsellers, math.Max(confidence, bestsellerConfidence)
	}
	return intent, confidence
}
