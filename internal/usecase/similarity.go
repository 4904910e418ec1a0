package usecase

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/watchlens/backend/internal/domain"
)

const (
	// titleMatchRatio is the fuzzy ratio a title must exceed to be reported as matched
	titleMatchRatio = 0.7
	// weightTolerance absorbs float error when checking that weights sum to 1
	weightTolerance = 1e-9
	// scorePrecision rounds scores so that equal field sets yield equal scores
	scorePrecision = 1e9
)

// Weights holds the per-field contribution of the similarity score
type Weights struct {
	Brand     float64 `mapstructure:"brand"`
	Reference float64 `mapstructure:"reference"`
	Model     float64 `mapstructure:"model"`
	Title     float64 `mapstructure:"title"`
}

// DefaultWeights returns brand 0.4, reference 0.3, model 0.2, title 0.1.
func DefaultWeights() Weights {
	return Weights{Brand: 0.4, Reference: 0.3, Model: 0.2, Title: 0.1}
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		domain.FieldBrand:     w.Brand,
		domain.FieldReference: w.Reference,
		domain.FieldModel:     w.Model,
		domain.FieldTitle:     w.Title,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight must be non-negative, got %v", domain.ErrInvalidConfiguration, name, v)
		}
	}
	sum := w.Brand + w.Reference + w.Model + w.Title
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: similarity weights must sum to 1.0, got %v", domain.ErrInvalidConfiguration, sum)
	}
	return nil
}

// Scorer computes a weighted similarity between two records
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer, rejecting invalid weights.
func NewScorer(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Weights returns the configured weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score compares query with candidate and returns a score in [0,1] and the
// names of the fields that contributed to it, in brand/reference/model/title order.
//
// Brand and reference are binary case-insensitive equality. Model is binary
// and directional: the query model must be a substring of the candidate model.
// Title contributes its fuzzy ratio times the title weight and is reported as
// matched only above titleMatchRatio.
func (s *Scorer) Score(query, candidate *domain.ProductRecord) (float64, []string) {
	if query == nil || candidate == nil {
		return 0, nil
	}

	score := 0.0
	matched := make([]string, 0, 4)

	if equalFold(query.Brand, candidate.Brand) && !strings.EqualFold(query.Brand, domain.UnknownBrand) {
		score += s.weights.Brand
		matched = appendIfWeighted(matched, domain.FieldBrand, s.weights.Brand)
	}

	if equalFold(query.Reference, candidate.Reference) {
		score += s.weights.Reference
		matched = appendIfWeighted(matched, domain.FieldReference, s.weights.Reference)
	}

	if containsFold(candidate.Model, query.Model) {
		score += s.weights.Model
		matched = appendIfWeighted(matched, domain.FieldModel, s.weights.Model)
	}

	ratio := TitleRatio(query.Title, candidate.Title)
	score += ratio * s.weights.Title
	if ratio > titleMatchRatio && s.weights.Title > 0 {
		matched = append(matched, domain.FieldTitle)
	}

	return clampScore(score), matched
}

// TitleRatio returns the normalized edit-distance similarity of two titles,
// compared lower-cased: 1 - distance / longest rune length. Empty titles score 0.
func TitleRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return math.Max(0, 1-float64(dist)/float64(longest))
}

// equalFold reports a case-insensitive match of two non-empty values
func equalFold(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// containsFold reports whether non-empty sub is a case-insensitive substring of s
func containsFold(s, sub string) bool {
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), sub)
}

func appendIfWeighted(fields []string, name string, weight float64) []string {
	if weight > 0 {
		return append(fields, name)
	}
	return fields
}

func clampScore(score float64) float64 {
	score = math.Round(score*scorePrecision) / scorePrecision
	return math.Min(1, math.Max(0, score))
}
