package api

import (
	"net/http"
	"strings"

	"github.com/neexbeast/gumdrop/internal/stay"
)

type recommendRequest struct {
	Hotels       []stay.PricedHotel `json:"hotels"`
	EventDetails stay.EventDetails  `json:"eventDetails"`
}

// Recommend handles POST /api/v1/ai/recommend.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "recommendation", err)
		return
	}

	recs, err := h.Recommender.Recommend(r.Context(), req.Hotels, req.EventDetails)
	if err != nil {
		h.writeError(w, r, "recommendation", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"source":          recs.Source,
		"recommendations": recs,
	})
}

type conciergeRequest struct {
	Prompt string `json:"prompt"`
}

// AskConcierge handles POST /api/v1/ai/concierge.
func (h *Handlers) AskConcierge(w http.ResponseWriter, r *http.Request) {
	if h.Concierge == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "concierge is not configured"})
		return
	}

	var req conciergeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "concierge", err)
		return
	}

	content, err := h.Concierge.Concierge(r.Context(), strings.TrimSpace(req.Prompt))
	if err != nil {
		h.writeError(w, r, "concierge", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// PlanStay handles POST /api/v1/stays/plan.
func (h *Handlers) PlanStay(w http.ResponseWriter, r *http.Request) {
	var req stay.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "stay plan", err)
		return
	}

	plan, err := h.Planner.Plan(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "stay plan", err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeEvent handles POST /api/v1/events/scrape.
func (h *Handlers) ScrapeEvent(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "event scrape", err)
		return
	}

	details, err := h.Scraper.Scrape(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		h.writeError(w, r, "event scrape", err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}
