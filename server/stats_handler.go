package server

import (
	"net/http"

	"PracticeLog/core/stats"
)

// StatsHandler 只读统计接口
type StatsHandler struct {
	svc *stats.Service
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) register(r apiRouter) {
	r.handle("/stats", h.DashboardHandler, http.MethodGet)
	r.handle("/analytics", h.AnalyticsHandler, http.MethodGet)
	r.handle("/songs/{id}/stats", h.SongStatsHandler, http.MethodGet)
	r.handle("/goals/progress", h.GoalProgressHandler, http.MethodGet)
}

// DashboardHandler GET /stats
func (h *StatsHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// SongStatsHandler GET /songs/{id}/stats
func (h *StatsHandler) SongStatsHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	out, err := h.svc.SongStats(r.Context(), currentUser(r), songID)
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AnalyticsHandler GET /analytics
func (h *StatsHandler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Analytics(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GoalProgressHandler GET /goals/progress
func (h *StatsHandler) GoalProgressHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GoalProgress(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
