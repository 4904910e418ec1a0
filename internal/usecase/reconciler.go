package usecase

import (
	"github.com/watchlens/backend/internal/domain"
)

// ReconciledPair links a source listing to the target listing it was matched with
type ReconciledPair struct {
	Source *domain.ProductRecord `json:"source"`
	Target *domain.ProductRecord `json:"target"`
	Score  float64               `json:"score"`
}

// Reconciliation is the outcome of matching two listing sets one-to-one
type Reconciliation struct {
	Matches         []ReconciledPair       `json:"matches"`
	UnmatchedSource []domain.ProductRecord `json:"unmatchedSource"`
	UnmatchedTarget []domain.ProductRecord `json:"unmatchedTarget"`
	MatchRate       float64                `json:"matchRate"`
}

// Reconciler pairs listings of two sources, each target used at most once
type Reconciler struct {
	scorer    *Scorer
	threshold float64
}

// NewReconciler creates a reconciler. A threshold outside [0,1] is rejected.
func NewReconciler(scorer *Scorer, threshold float64) (*Reconciler, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	return &Reconciler{scorer: scorer, threshold: threshold}, nil
}

// Reconcile walks source in order; each source listing takes the best-scoring
// unclaimed target at or above the threshold. Ties keep the earlier target.
// MatchRate is matches over source size, 0 for an empty source.
func (r *Reconciler) Reconcile(source, target []domain.ProductRecord) Reconciliation {
	result := Reconciliation{
		Matches:         []ReconciledPair{},
		UnmatchedSource: []domain.ProductRecord{},
	}
	claimed := make([]bool, len(target))

	for i := range source {
		best, bestScore := -1, 0.0
		for j := range target {
			if claimed[j] {
				continue
			}
			score, _ := r.scorer.Score(&source[i], &target[j])
			if score >= r.threshold && (best < 0 || score > bestScore) {
				best, bestScore = j, score
			}
		}

		if best < 0 {
			result.UnmatchedSource = append(result.UnmatchedSource, source[i])
			continue
		}
		claimed[best] = true
		result.Matches = append(result.Matches, ReconciledPair{
			Source: &source[i],
			Target: &target[best],
			Score:  bestScore,
		})
	}

	result.UnmatchedTarget = make([]domain.ProductRecord, 0, len(target)-len(result.Matches))
	for j := range target {
		if !claimed[j] {
			result.UnmatchedTarget = append(result.UnmatchedTarget, target[j])
		}
	}

	if len(source) > 0 {
		result.MatchRate = float64(len(result.Matches)) / float64(len(source))
	}
	return result
}
