package prefs

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// VisitorCookie names the anonymous cookie that keys preferences.
const VisitorCookie = "tb_visitor"

const visitorMaxAge = 365 * 24 * time.Hour

// Visitor returns the visitor id carried by r, issuing a new one on w when
// the cookie is missing or malformed.
func Visitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
