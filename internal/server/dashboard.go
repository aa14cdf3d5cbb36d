// ABOUTME: Handlers for the dashboard widget data: weather, market, schemes, ads, forum, soil, water
// ABOUTME: Widgets are plain fetch-and-render panels; these endpoints return already-computed view data

package server

import (
	"encoding/json"
	"net/http"
)

// RecommendRequest is the JSON request body for POST /api/dashboard/recommendations.
type RecommendRequest struct {
	Season   string `json:"season"`
	SoilType string `json:"soil_type"`
	Altitude int    `json:"altitude"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.forecaster.Current(r.Context())
	if err != nil {
		s.logger.Warn("weather fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "weather service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	prices, err := s.dash.MarketPrices(r.Context())
	if err != nil {
		s.logger.Error("market query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load market prices")
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.dash.Schemes(r.Context())
	if err != nil {
		s.logger.Error("schemes query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load schemes")
		return
	}
	writeJSON(w, http.StatusOK, schemes)
}

func (s *Server) handleAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.dash.Advertisements(r.Context())
	if err != nil {
		s.logger.Error("ads query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load advertisements")
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

func (s *Server) handleForum(w http.ResponseWriter, r *http.Request) {
	posts, err := s.dash.ForumPosts(r.Context(), 10)
	if err != nil {
		s.logger.Error("forum query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load forum posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleSoil(w http.ResponseWriter, r *http.Request) {
	reading, err := s.dash.LatestSoilReading(r.Context())
	if err != nil {
		s.logger.Error("soil query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load soil reading")
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	storage, err := s.dash.WaterStorage(r.Context())
	if err != nil {
		s.logger.Error("water query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load water storage")
		return
	}
	writeJSON(w, http.StatusOK, storage)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Season == "" || req.SoilType == "" {
		writeError(w, http.StatusBadRequest, "season and soil_type are required")
		return
	}
	recs, err := s.recommender.RecommendCrops(r.Context(), req.Season, req.SoilType, req.Altitude)
	if err != nil {
		s.logger.Warn("recommendation request failed", "error", err)
		writeError(w, http.StatusBadGateway, "recommendation service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
