package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

type moodBoardView struct {
	*database.MoodBoard
	TrendItems []trendView `json:"trend_items,omitempty"`
}

type createMoodBoardRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ItemIDs     []int64 `json:"item_ids"`
	CreatedBy   string  `json:"created_by" validate:"required"`
}

type updateMoodBoardRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Items       *[]int64 `json:"items"`
}

func (s *Server) moodBoardRoutes(r chi.Router) {
	r.Post("/", s.handleCreateMoodBoard)
	r.Get("/", s.handleListMoodBoards)
	r.Get("/{id}", s.handleGetMoodBoard)
	r.Put("/{id}", s.handleUpdateMoodBoard)
	r.Delete("/{id}", s.handleDeleteMoodBoard)
}

// itemsExist writes a 400 reply and returns false if any id is unknown.
func (s *Server) itemsExist(w http.ResponseWriter, r *http.Request, ids []int64) bool {
	if len(ids) == 0 {
		return true
	}
	missing, err := s.db.MissingTrendIDs(ids)
	if err != nil {
		internalError(w, r, err, "")
		return false
	}
	if len(missing) > 0 {
		badRequest(w, "One or more trend items not found")
		return false
	}
	return true
}

func (s *Server) handleCreateMoodBoard(w http.ResponseWriter, r *http.Request) {
	var req createMoodBoardRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.itemsExist(w, r, req.ItemIDs) {
		return
	}
	b := &database.MoodBoard{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
		Items:       req.ItemIDs,
	}
	if b.Items == nil {
		b.Items = []int64{}
	}
	if err := s.db.CreateMoodBoard(b); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, moodBoardView{MoodBoard: b})
}

func (s *Server) handleListMoodBoards(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	createdBy, category := q.str("created_by"), q.str("category")
	limit := q.intRange("limit", 50, 1, 100)
	offset := q.intRange("offset", 0, 0, 1<<30)
	if !q.ok(w) {
		return
	}
	boards, err := s.db.ListMoodBoards(createdBy, category, limit, offset)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	out := make([]moodBoardView, 0, len(boards))
	for i := range boards {
		out = append(out, moodBoardView{MoodBoard: &boards[i]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMoodBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := s.db.GetMoodBoard(id)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if b == nil {
		notFound(w, "Mood board not found")
		return
	}
	v := moodBoardView{MoodBoard: b}
	if len(b.Items) > 0 {
		items, err := s.db.GetTrendsByIDs(b.Items)
		if err != nil {
			internalError(w, r, err, "")
			return
		}
		v.TrendItems = viewTrends(items)
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateMoodBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateMoodBoardRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := s.db.GetMoodBoard(id)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if b == nil {
		notFound(w, "Mood board not found")
		return
	}
	if req.Items != nil && !s.itemsExist(w, r, *req.Items) {
		return
	}

	err = s.db.UpdateMoodBoard(id, database.MoodBoardUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Items:       req.Items,
	})
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if b, err = s.db.GetMoodBoard(id); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, moodBoardView{MoodBoard: b})
}

func (s *Server) handleDeleteMoodBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.db.DeleteMoodBoard(id)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if !deleted {
		notFound(w, "Mood board not found")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Mood board deleted successfully"})
}
