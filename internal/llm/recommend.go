package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/stay"
)

const recommendSystem = "You are a travel expert that provides JSON responses for hotel recommendations. Always respond with valid JSON only."

// Recommend asks the model for budget, luxury and overall picks.
func (c *Client) Recommend(ctx context.Context, hotels []stay.PricedHotel, event stay.EventDetails) (stay.Recommendations, error) {
	if len(hotels) == 0 {
		return stay.Recommendations{}, apperr.NotFound("no recommendations")
	}

	content, err := c.complete(ctx, "recommend", completion{
		system:      recommendSystem,
		user:        buildPrompt(hotels, event),
		maxTokens:   500,
		temperature: 0.3,
		jsonOnly:    true,
	})
	if err != nil {
		return stay.Recommendations{}, err
	}
	return parseRecommendations(content, len(hotels))
}

func buildPrompt(hotels []stay.PricedHotel, event stay.EventDetails) string {
	var b strings.Builder
	b.WriteString("I'm attending ")
	if event.Title != "" {
		b.WriteString(strings.TrimSpace(event.Title))
	} else {
		b.WriteString("an event")
	}
	if event.Location != "" {
		b.WriteString(" at " + event.Location)
	}
	if event.Date != "" {
		b.WriteString(" on " + event.Date)
	}
	b.WriteString(". Here are the available hotels:\n\n")

	for i, h := range hotels {
		fmt.Fprintf(&b, "%d. %s\n", i, h.Name)
		fmt.Fprintf(&b, "   - Address: %s\n", orDefault(h.Address, "Address not available"))
		if h.Rating != nil && *h.Rating > 0 {
			fmt.Fprintf(&b, "   - Rating: %.1f\n", *h.Rating)
		} else {
			b.WriteString("   - Rating: N/A\n")
		}
		fmt.Fprintf(&b, "   - Price: %.2f %s\n", h.Pricing.Amount, h.Pricing.Currency)
		if h.DistanceKm != nil {
			fmt.Fprintf(&b, "   - Distance: %.1fkm\n", *h.DistanceKm)
		} else {
			b.WriteString("   - Distance: unknown\n")
		}
		fmt.Fprintf(&b, "   - Room: %s", orDefault(h.Pricing.RoomName, "Standard Room"))
		if h.Pricing.BoardName != "" {
			fmt.Fprintf(&b, " (%s)", h.Pricing.BoardName)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(`Pick three hotels by their index and respond with JSON in exactly this form:
{
  "bestBudget": {"index": <number>, "reason": "<one sentence>"},
  "mostLuxurious": {"index": <number>, "reason": "<one sentence>"},
  "bestOverall": {"index": <number>, "reason": "<one sentence>"}
}
Consider price, rating, proximity to the event, the room, and value for money.`)
	if len(hotels) >= 3 {
		b.WriteString(" Each category must use a different hotel index.")
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// parseRecommendations extracts the outermost JSON object from content and
// validates its picks against n hotels.
func parseRecommendations(content string, n int) (stay.Recommendations, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return stay.Recommendations{}, &apperr.ParseError{Service: service, Raw: content, Err: errors.New("no JSON object in completion")}
	}

	var raw struct {
		BestBudget    *stay.Pick `json:"bestBudget"`
		MostLuxurious *stay.Pick `json:"mostLuxurious"`
		BestOverall   *stay.Pick `json:"bestOverall"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return stay.Recommendations{}, &apperr.ParseError{Service: service, Raw: content, Err: err}
	}
	if raw.BestBudget == nil || raw.MostLuxurious == nil || raw.BestOverall == nil {
		return stay.Recommendations{}, &apperr.ParseError{Service: service, Raw: content, Err: errors.New("missing pick")}
	}

	recs := stay.Recommendations{
		BestBudget:    *raw.BestBudget,
		MostLuxurious: *raw.MostLuxurious,
		BestOverall:   *raw.BestOverall,
	}
	if err := stay.ValidatePicks(recs, n); err != nil {
		return stay.Recommendations{}, &apperr.ParseError{Service: service, Raw: content, Err: err}
	}
	return recs, nil
}
