package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/sanitize"
	"github.com/cardlens/cardlens/internal/store"
)

// cardRequest is the mutable surface of a card accepted over HTTP.
type cardRequest struct {
	Name       string   `json:"name"`
	Company    string   `json:"company"`
	JobTitle   string   `json:"job_title"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Mobile     string   `json:"mobile"`
	Address    string   `json:"address"`
	Website    string   `json:"website"`
	Notes      string   `json:"notes"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"is_favorite"`
}

func (s *Server) createCardHandler(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := card.New(card.Params{
		Name:       req.Name,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Email:      req.Email,
		Phone:      req.Phone,
		Mobile:     req.Mobile,
		Address:    req.Address,
		Website:    req.Website,
		Notes:      req.Notes,
		Tags:       req.Tags,
		IsFavorite: req.IsFavorite,
	}, sanitize.New())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.Save(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCardHandler(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorMessage(w, http.StatusNotFound, "card not found")
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCardHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorMessage(w, http.StatusNotFound, "card not found")
			return
		}
		s.writeError(w, err)
		return
	}

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := card.New(card.Params{
		ID:         existing.ID,
		Name:       req.Name,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Email:      req.Email,
		Phone:      req.Phone,
		Mobile:     req.Mobile,
		Address:    req.Address,
		Website:    req.Website,
		Notes:      req.Notes,
		Tags:       req.Tags,
		IsFavorite: req.IsFavorite,
		CreatedAt:  existing.CreatedAt,
	}, sanitize.New())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.Update(r.Context(), updated); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteCardHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorMessage(w, http.StatusNotFound, "card not found")
			return
		}
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCardsHandler(w http.ResponseWriter, r *http.Request) {
	q := store.Query{
		Text:          r.URL.Query().Get("q"),
		Tag:           r.URL.Query().Get("tag"),
		FavoritesOnly: r.URL.Query().Get("favorites") == "true",
		Limit:         queryInt(r, "limit", 50),
		Offset:        queryInt(r, "offset", 0),
	}

	cards, err := s.store.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CardsResponse{Cards: cards, Count: len(cards)})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.History(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Results: results, Count: len(results)})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
