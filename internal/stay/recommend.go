package stay

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
)

// Recommender is a model-backed ranking of priced hotels.
type Recommender interface {
	Recommend(ctx context.Context, hotels []PricedHotel, event EventDetails) (Recommendations, error)
}

// Advisor produces recommendations, falling back to a price heuristic when
// the recommender is absent or fails.
type Advisor struct {
	model Recommender
	log   *slog.Logger
}

// NewAdvisor returns an Advisor. model may be nil.
func NewAdvisor(model Recommender, log *slog.Logger) *Advisor {
	if log == nil {
		log = slog.Default()
	}
	return &Advisor{model: model, log: log}
}

// Recommend never fails for a non-empty hotel list.
func (a *Advisor) Recommend(ctx context.Context, hotels []PricedHotel, event EventDetails) (Recommendations, error) {
	if len(hotels) == 0 {
		return Recommendations{}, apperr.NotFound("no recommendations")
	}

	if a.model != nil {
		recs, err := a.model.Recommend(ctx, hotels, event)
		if err == nil {
			recs.Source = SourceLLM
			observability.ObserveRecommendation(SourceLLM)
			return recs, nil
		}
		a.log.Warn("llm recommendation failed, using heuristic", "hotels", len(hotels), "err", err)
	}

	recs := Heuristic(hotels)
	observability.ObserveRecommendation(SourceHeuristic)
	return recs, nil
}

// Heuristic ranks by price: cheapest, most expensive, and the median.
// hotels must be non-empty.
func Heuristic(hotels []PricedHotel) Recommendations {
	order := make([]int, len(hotels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return hotels[order[i]].Pricing.Amount < hotels[order[j]].Pricing.Amount
	})

	n := len(order)
	return Recommendations{
		BestBudget:    Pick{Index: order[0], Reason: "Lowest price among the available hotels."},
		MostLuxurious: Pick{Index: order[n-1], Reason: "Highest-priced option, likely the most premium stay."},
		BestOverall:   Pick{Index: order[n/2], Reason: "Mid-range price, a balance of cost and comfort."},
		Source:        SourceHeuristic,
	}
}

// ValidatePicks checks that every index addresses one of n hotels and that
// the three picks are distinct when n >= 3.
func ValidatePicks(r Recommendations, n int) error {
	picks := []Pick{r.BestBudget, r.MostLuxurious, r.BestOverall}
	for _, p := range picks {
		if p.Index < 0 || p.Index >= n {
			return fmt.Errorf("pick index %d out of range for %d hotels", p.Index, n)
		}
	}
	if n >= 3 {
		seen := make(map[int]bool, 3)
		for _, p := range picks {
			if seen[p.Index] {
				return fmt.Errorf("duplicate pick index %d", p.Index)
			}
			seen[p.Index] = true
		}
	}
	return nil
}
