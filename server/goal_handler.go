package server

import (
	"net/http"

	"PracticeLog/core/goal"
	"PracticeLog/model"
)

const goalNotFound = "Goal not found"

// GoalHandler 练习目标接口
type GoalHandler struct {
	svc *goal.Service
}

// NewGoalHandler 创建目标处理器
func NewGoalHandler(svc *goal.Service) *GoalHandler {
	return &GoalHandler{svc: svc}
}

func (h *GoalHandler) register(r apiRouter) {
	r.handle("/goals", h.ListGoalsHandler, http.MethodGet)
	r.handle("/goals", h.CreateGoalHandler, http.MethodPost)
	r.handle("/goals/{id}", h.UpdateGoalHandler, http.MethodPut)
	r.handle("/goals/{id}", h.DeleteGoalHandler, http.MethodDelete)
}

// ListGoalsHandler GET /goals
func (h *GoalHandler) ListGoalsHandler(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// CreateGoalHandler POST /goals，同类型的旧目标会被停用
func (h *GoalHandler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	var in model.GoalCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	created, err := h.svc.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateGoalHandler PUT /goals/{id}
func (h *GoalHandler) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	var in model.GoalUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	updated, err := h.svc.Update(r.Context(), currentUser(r), goalID, in)
	if err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteGoalHandler DELETE /goals/{id}
func (h *GoalHandler) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	if err := h.svc.Delete(r.Context(), currentUser(r), goalID); err != nil {
		writeError(w, r, err, goalNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
