package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/menu"
	"github.com/ziadkadry99/tradebook/internal/pages"
	"github.com/ziadkadry99/tradebook/internal/prefs"
)

func (s *Server) registerUIRoutes(r chi.Router) {
	r.Get("/sidebar", s.handleSidebar)
	r.Get("/static/sidebar.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Write([]byte(menu.Script()))
	})
	r.Get("/static/sidebar.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write([]byte(menu.Stylesheet()))
	})
}

func (s *Server) registerMenuAPI(r chi.Router) {
	r.Get("/menu", s.handleMenu)
	r.Get("/menu/search", s.handleMenuSearch)
	r.Post("/ui/menu/{index}", s.handleToggleSection)
	r.Post("/ui/theme", s.handleToggleTheme)
}

// loadMenu reads the menu for one page view. A failure leaves the sidebar
// empty.
func (s *Server) loadMenu(ctx context.Context) []menu.Section {
	sections, err := menu.Load(ctx, s.cfg.Menu.Source, s.deps.MenuClient)
	if err != nil {
		s.logger.Warn("loading menu", zap.String("source", s.cfg.Menu.Source), zap.Error(err))
		return nil
	}
	return sections
}

// sidebarState restores the visitor's persisted flags. Store failures fall
// back to a fresh state.
func (s *Server) sidebarState(ctx context.Context, visitor string, count int) menu.State {
	state, err := s.deps.Prefs.LoadState(ctx, visitor, count)
	if err != nil {
		s.logger.Warn("loading preferences", zap.Error(err))
	}
	return state
}

func (s *Server) sidebarView(w http.ResponseWriter, r *http.Request, currentPath, query string) (menu.View, menu.State) {
	visitor := prefs.Visitor(w, r)
	sections := s.loadMenu(r.Context())
	state := s.sidebarState(r.Context(), visitor, len(sections))
	state.Collapsed = menu.InitialCollapsed(currentPath)

	view := menu.NewView(sections, state, currentPath, query)
	view.HomePath = s.cfg.Menu.HomePath
	return view, state
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	currentPath := r.URL.Query().Get("path")
	if currentPath == "" {
		currentPath = "/"
	}
	view, _ := s.sidebarView(w, r, currentPath, r.URL.Query().Get("q"))

	var buf bytes.Buffer
	if err := menu.Render(&buf, view); err != nil {
		s.logger.Error("rendering sidebar", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	sections := s.loadMenu(r.Context())
	if sections == nil {
		sections = []menu.Section{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) handleMenuSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, menu.Search(s.loadMenu(r.Context()), r.URL.Query().Get("q")))
}

func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section index"})
		return
	}
	visitor := prefs.Visitor(w, r)
	sections := s.loadMenu(r.Context())

	state, ok, err := s.deps.Prefs.ToggleSection(r.Context(), visitor, idx, sections, r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "section index out of range"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"openIndex": state.OpenIndex})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.deps.Prefs.ToggleTheme(r.Context(), prefs.Visitor(w, r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme), "icon": theme.Icon()})
}

// handlePage serves a markdown page with the sidebar. Every page except
// the login page requires a session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name, ok := pages.NameFromURL(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	shell := pages.Shell{Notice: r.URL.Query().Get("error")}
	if r.URL.Path != s.cfg.Auth.LoginPath {
		sess := s.deps.Sessions.CheckAuth(w, r)
		if sess == nil {
			return
		}
		shell.UserEmail = userEmail(sess)
	}

	view, state := s.sidebarView(w, r, r.URL.Path, "")
	sidebar, err := menu.RenderHTML(view)
	if err != nil {
		s.logger.Error("rendering sidebar", zap.Error(err))
	}
	shell.Sidebar = sidebar
	shell.Theme = state.Theme
	shell.Collapsed = state.Collapsed

	var buf bytes.Buffer
	if err := s.deps.Pages.Render(&buf, name, shell); err != nil {
		if errors.Is(err, pages.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func userEmail(sess *backend.Session) string {
	if sess == nil {
		return ""
	}
	return sess.User.Email
}
