package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/tradebook/internal/records"
	"github.com/ziadkadry99/tradebook/internal/session"
)

func (s *Server) registerDataRoutes(r chi.Router) {
	r.Get("/me", s.handleMe)

	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)

	r.Route("/brokers", func(r chi.Router) {
		r.Get("/", s.handleListBrokers)
		r.Post("/", s.handleAddBroker)
		r.Put("/{id}", s.handleUpdateBroker)
		r.Delete("/{id}", s.handleDeleteBroker)
	})

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", s.handleListTrades)
		r.Post("/", s.handleAddTrade)
		r.Delete("/", s.handleDeleteAllTrades)
		r.Post("/bulk", s.handleBulkAddTrades)
		r.Put("/{id}", s.handleUpdateTrade)
		r.Delete("/{id}", s.handleDeleteTrade)
	})
}

// store returns the records store acting as the request's user.
func (s *Server) store(r *http.Request) (*records.Store, string) {
	sess := session.FromContext(r.Context())
	return s.deps.Records.For(sess), sess.User.ID
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := s.deps.Sessions.GetCurrentUser(r.Context(), r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, userID := s.store(r)
	settings := st.LoadUserSettings(r.Context(), userID)
	if settings == nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "settings unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings records.Settings
	if err := decodeBody(w, r, &settings); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	st, userID := s.store(r)
	if err := st.SaveUserSettings(r.Context(), userID, settings); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type brokerRequest struct {
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discountPercent"`
}

func (s *Server) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	st, userID := s.store(r)
	writeJSON(w, http.StatusOK, st.LoadBrokers(r.Context(), userID))
}

func (s *Server) handleAddBroker(w http.ResponseWriter, r *http.Request) {
	var req brokerRequest
	if err := decodeBody(w, r, &req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	st, userID := s.store(r)
	b, err := st.AddBroker(r.Context(), userID, req.Name, req.DiscountPercent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBroker(w http.ResponseWriter, r *http.Request) {
	var req brokerRequest
	if err := decodeBody(w, r, &req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	st, _ := s.store(r)
	if err := st.UpdateBroker(r.Context(), chi.URLParam(r, "id"), req.Name, req.DiscountPercent); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBroker(w http.ResponseWriter, r *http.Request) {
	st, _ := s.store(r)
	if err := st.DeleteBroker(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	st, userID := s.store(r)
	writeJSON(w, http.StatusOK, st.LoadTrades(r.Context(), userID))
}

func (s *Server) handleAddTrade(w http.ResponseWriter, r *http.Request) {
	var t records.Trade
	if err := decodeBody(w, r, &t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	st, userID := s.store(r)
	created, err := st.AddTrade(r.Context(), userID, t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBulkAddTrades(w http.ResponseWriter, r *http.Request) {
	var trades []records.Trade
	if err := decodeBody(w, r, &trades); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	st, userID := s.store(r)
	created, err := st.BulkAddTrades(r.Context(), userID, trades)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	var t records.Trade
	if err := decodeBody(w, r, &t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	st, _ := s.store(r)
	if err := st.UpdateTrade(r.Context(), chi.URLParam(r, "id"), t); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	st, _ := s.store(r)
	if err := st.DeleteTrade(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllTrades(w http.ResponseWriter, r *http.Request) {
	st, userID := s.store(r)
	if err := st.DeleteAllTrades(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
