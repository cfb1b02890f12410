package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"PracticeLog/core/errs"
	"PracticeLog/core/song"
	"PracticeLog/logger"
	"PracticeLog/model"
)

const (
	songNotFound    = "Song not found"
	sectionNotFound = "Section not found"
)

// SongHandler 歌曲与段落接口
type SongHandler struct {
	svc *song.Service
}

// NewSongHandler 创建歌曲处理器
func NewSongHandler(svc *song.Service) *SongHandler {
	return &SongHandler{svc: svc}
}

func (h *SongHandler) register(r apiRouter) {
	r.handle("/songs", h.ListSongsHandler, http.MethodGet)
	r.handle("/songs", h.CreateSongHandler, http.MethodPost)
	r.handle("/songs/{id}", h.GetSongHandler, http.MethodGet)
	r.handle("/songs/{id}", h.UpdateSongHandler, http.MethodPut)
	r.handle("/songs/{id}", h.DeleteSongHandler, http.MethodDelete)
	r.handle("/songs/{id}/sections", h.CreateSectionHandler, http.MethodPost)
	r.handle("/songs/{id}/sections/{section_id}", h.UpdateSectionHandler, http.MethodPut)
	r.handle("/songs/{id}/sections/{section_id}", h.DeleteSectionHandler, http.MethodDelete)
}

// pathID 读取并规范化路径中的 UUID
func pathID(r *http.Request, name string) (string, error) {
	id, err := model.NormalizeID(mux.Vars(r)[name])
	if err != nil {
		return "", errs.Invalid(name, "must be a valid UUID")
	}
	return id, nil
}

func currentUser(r *http.Request) string {
	userID, _ := UserIDFromContext(r.Context())
	return userID
}

// ListSongsHandler GET /songs
func (h *SongHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler GET /songs/{id}
func (h *SongHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	s, err := h.svc.Get(r.Context(), currentUser(r), songID)
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSongHandler POST /songs，可同时创建段落
func (h *SongHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	var in model.SongCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	created, err := h.svc.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	logger.Debug("[Song] created",
		logger.String("song_id", created.ID),
		logger.Int("sections", len(created.Sections)))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateSongHandler PUT /songs/{id}
func (h *SongHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	var in model.SongUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	updated, err := h.svc.Update(r.Context(), currentUser(r), songID, in)
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSongHandler DELETE /songs/{id}
func (h *SongHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	if err := h.svc.Delete(r.Context(), currentUser(r), songID); err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========== 段落 ==========

// CreateSectionHandler POST /songs/{id}/sections
func (h *SongHandler) CreateSectionHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	var in model.SectionCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	created, err := h.svc.CreateSection(r.Context(), currentUser(r), songID, in)
	if err != nil {
		writeError(w, r, err, songNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateSectionHandler PUT /songs/{id}/sections/{section_id}
func (h *SongHandler) UpdateSectionHandler(w http.ResponseWriter, r *http.Request) {
	songID, sectionID, err := sectionPath(r)
	if err != nil {
		writeError(w, r, err, sectionNotFound)
		return
	}
	var in model.SectionUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, sectionNotFound)
		return
	}
	updated, err := h.svc.UpdateSection(r.Context(), currentUser(r), songID, sectionID, in)
	if err != nil {
		writeError(w, r, err, sectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSectionHandler DELETE /songs/{id}/sections/{section_id}
func (h *SongHandler) DeleteSectionHandler(w http.ResponseWriter, r *http.Request) {
	songID, sectionID, err := sectionPath(r)
	if err != nil {
		writeError(w, r, err, sectionNotFound)
		return
	}
	if err := h.svc.DeleteSection(r.Context(), currentUser(r), songID, sectionID); err != nil {
		writeError(w, r, err, sectionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sectionPath(r *http.Request) (songID, sectionID string, err error) {
	v := &errs.ValidationError{}
	if songID, err = model.NormalizeID(mux.Vars(r)["id"]); err != nil {
		v.Add("id", "must be a valid UUID")
	}
	if sectionID, err = model.NormalizeID(mux.Vars(r)["section_id"]); err != nil {
		v.Add("section_id", "must be a valid UUID")
	}
	return songID, sectionID, v.OrNil()
}
