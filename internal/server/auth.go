package server

import (
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerAuthRoutes(r chi.Router) {
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.deps.Sessions.SignOut)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin accepts a form post from the login page or a JSON body.
// Form posts are redirected; JSON callers get the user back.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	asJSON := mediaType == "application/json"

	var req loginRequest
	if asJSON {
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	}

	sess, err := s.deps.Sessions.SignIn(w, r, req.Email, req.Password)
	if err != nil {
		if asJSON {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, s.cfg.Auth.LoginPath+"?error="+url.QueryEscape("Invalid email or password"), http.StatusSeeOther)
		return
	}

	if asJSON {
		writeJSON(w, http.StatusOK, sess.User)
		return
	}
	http.Redirect(w, r, s.cfg.Menu.HomePath, http.StatusSeeOther)
}
