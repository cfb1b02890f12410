package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"PracticeLog/core/errs"
	"PracticeLog/core/session"
	"PracticeLog/model"
)

const (
	sessionNotFound = "Session not found"
	dateLayout      = "2006-01-02"
)

// SessionHandler 练习记录接口
type SessionHandler struct {
	svc *session.Service
}

// NewSessionHandler 创建练习记录处理器
func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) register(r apiRouter) {
	r.handle("/sessions", h.ListSessionsHandler, http.MethodGet)
	r.handle("/sessions", h.CreateSessionHandler, http.MethodPost)
	r.handle("/sessions/{id}", h.GetSessionHandler, http.MethodGet)
	r.handle("/sessions/{id}", h.UpdateSessionHandler, http.MethodPut)
	r.handle("/sessions/{id}", h.DeleteSessionHandler, http.MethodDelete)
}

// ListSessionsHandler GET /sessions?song_id=&section_id=&from_date=&to_date=&limit=&offset=
func (h *SessionHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSessionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	sessions, err := h.svc.List(r.Context(), currentUser(r), filter)
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// parseSessionFilter 解析查询参数。日期按 UTC 自然日，to_date 包含当天
func parseSessionFilter(q url.Values) (model.SessionFilter, error) {
	v := &errs.ValidationError{}
	f := model.SessionFilter{Limit: model.DefaultSessionLimit}

	for _, key := range []string{"song_id", "section_id"} {
		if !q.Has(key) {
			continue
		}
		id, err := model.NormalizeID(q.Get(key))
		if err != nil {
			v.Add(key, "must be a valid UUID")
			continue
		}
		if key == "song_id" {
			f.SongID = id
		} else {
			f.SectionID = id
		}
	}

	if q.Has("from_date") {
		d, err := time.Parse(dateLayout, q.Get("from_date"))
		if err != nil {
			v.Add("from_date", "must be a date in YYYY-MM-DD format")
		} else {
			from := d.UTC()
			f.From = &from
		}
	}
	if q.Has("to_date") {
		d, err := time.Parse(dateLayout, q.Get("to_date"))
		if err != nil {
			v.Add("to_date", "must be a date in YYYY-MM-DD format")
		} else {
			to := d.UTC().Add(24*time.Hour - time.Second)
			f.To = &to
		}
	}

	if q.Has("limit") {
		n, err := strconv.Atoi(q.Get("limit"))
		if err != nil || n < 1 || n > model.MaxSessionLimit {
			v.Add("limit", "must be an integer between 1 and "+strconv.Itoa(model.MaxSessionLimit))
		} else {
			f.Limit = n
		}
	}
	if q.Has("offset") {
		n, err := strconv.Atoi(q.Get("offset"))
		if err != nil || n < 0 {
			v.Add("offset", "must be a non-negative integer")
		} else {
			f.Offset = n
		}
	}
	return f, v.OrNil()
}

// GetSessionHandler GET /sessions/{id}
func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	s, err := h.svc.Get(r.Context(), currentUser(r), sessionID)
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSessionHandler POST /sessions
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var in model.SessionCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	created, err := h.svc.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateSessionHandler PUT /sessions/{id}
func (h *SessionHandler) UpdateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	var in model.SessionUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	updated, err := h.svc.Update(r.Context(), currentUser(r), sessionID, in)
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSessionHandler DELETE /sessions/{id}
func (h *SessionHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	if err := h.svc.Delete(r.Context(), currentUser(r), sessionID); err != nil {
		writeError(w, r, err, sessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
