package usecase

import (
	"fmt"
	"math"

	"github.com/watchlens/backend/internal/domain"
)

// RepricingConfig bounds how far a suggested price may move from the current one
type RepricingConfig struct {
	MinPriceDifference float64
	MaxPriceIncrease   float64
	MaxPriceDecrease   float64
}

// DefaultRepricingConfig returns a 50 minimum difference, +20% and -30% bounds.
func DefaultRepricingConfig() RepricingConfig {
	return RepricingConfig{
		MinPriceDifference: 50,
		MaxPriceIncrease:   0.2,
		MaxPriceDecrease:   0.3,
	}
}

// RepricingAdvisor turns a recommended price into advice for a seller's listing
type RepricingAdvisor struct {
	cfg RepricingConfig
}

// NewRepricingAdvisor validates the bounds and creates an advisor.
func NewRepricingAdvisor(cfg RepricingConfig) (*RepricingAdvisor, error) {
	if cfg.MinPriceDifference < 0 {
		return nil, fmt.Errorf("%w: minimum price difference must be non-negative", domain.ErrInvalidConfiguration)
	}
	if cfg.MaxPriceIncrease < 0 {
		return nil, fmt.Errorf("%w: maximum price increase must be non-negative", domain.ErrInvalidConfiguration)
	}
	if cfg.MaxPriceDecrease < 0 || cfg.MaxPriceDecrease > 1 {
		return nil, fmt.Errorf("%w: maximum price decrease must be within [0,1]", domain.ErrInvalidConfiguration)
	}
	return &RepricingAdvisor{cfg: cfg}, nil
}

// Advise clamps recommended into the allowed band around current and decides
// whether the change is worth making.
func (a *RepricingAdvisor) Advise(current *float64, recommended float64) *domain.RepricingAdvice {
	if current == nil || *current <= 0 {
		return &domain.RepricingAdvice{
			SuggestedPrice: recommended,
			Action:         domain.ActionNoPrice,
		}
	}

	lower := *current * (1 - a.cfg.MaxPriceDecrease)
	upper := *current * (1 + a.cfg.MaxPriceIncrease)
	suggested := math.Min(math.Max(recommended, lower), upper)

	advice := &domain.RepricingAdvice{
		CurrentPrice:   *current,
		SuggestedPrice: suggested,
		Difference:     suggested - *current,
		Clamped:        suggested != recommended,
	}

	switch {
	case advice.Difference == 0 || math.Abs(advice.Difference) < a.cfg.MinPriceDifference:
		advice.Action = domain.ActionKeep
		advice.SuggestedPrice = *current
		advice.Difference = 0
	case advice.Difference < 0:
		advice.Action = domain.ActionLower
	default:
		advice.Action = domain.ActionRaise
	}

	return advice
}
