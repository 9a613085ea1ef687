// Package backendtest provides an in-memory stand-in for the hosted
// PostgREST/GoTrue service, for tests.
package backendtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnonKey is the key the fake accepts in the apikey header.
const AnonKey = "test-anon-key"

var signingKey = []byte("backendtest-secret")

// Failure is an error reply injected for a method and table.
type Failure struct {
	Status  int
	Code    string
	Message string
}

type account struct {
	id       string
	email    string
	password string
}

// Server is the fake service. Rows are kept per table in insertion order.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]map[string]any
	text     map[string]map[string]bool
	accounts map[string]*account
	tokens   map[string]string
	refresh  map[string]string
	failures map[string]Failure
	calls    map[string]int
	clock    time.Time
	tokenTTL time.Duration
	seq      int
}

// NewServer starts a fake. Numeric columns of the settings, brokers and
// trades tables are returned as text, the way the hosted service returns
// numeric columns.
func NewServer() *Server {
	s := &Server{
		tables:   map[string][]map[string]any{},
		text:     map[string]map[string]bool{},
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		refresh:  map[string]string{},
		failures: map[string]Failure{},
		calls:    map[string]int{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		tokenTTL: time.Hour,
	}
	s.TextColumns("settings", "fee_rate_pct", "tax_rate_pct")
	s.TextColumns("brokers", "discount_percent")
	s.TextColumns("trades", "price", "cost_no_fee", "fee", "tax", "total_cost")

	r := chi.NewRouter()
	r.Post("/auth/v1/token", s.handleToken)
	r.Get("/auth/v1/user", s.handleUser)
	r.Post("/auth/v1/logout", s.handleLogout)
	r.HandleFunc("/rest/v1/{table}", s.handleTable)
	s.Server = httptest.NewServer(s.requireKey(r))
	return s
}

// TextColumns marks columns of table that are returned as strings.
func (s *Server) TextColumns(table string, columns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.text[table] == nil {
		s.text[table] = map[string]bool{}
	}
	for _, c := range columns {
		s.text[table][c] = true
	}
}

// SetTokenTTL sets the lifetime of tokens issued from now on. A negative
// value issues tokens that are already expired.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	s.tokenTTL = d
	s.mu.Unlock()
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.accounts[email] = &account{id: id, email: email, password: password}
	return id
}

// Fail makes every request with method on table (or "auth") reply with f
// until Reset.
func (s *Server) Fail(method, table string, f Failure) {
	s.mu.Lock()
	s.failures[method+" "+table] = f
	s.mu.Unlock()
}

// Reset clears injected failures and call counts.
func (s *Server) Reset() {
	s.mu.Lock()
	s.failures = map[string]Failure{}
	s.calls = map[string]int{}
	s.mu.Unlock()
}

// Calls returns how many requests with method hit table.
func (s *Server) Calls(method, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+table]
}

// Rows returns a copy of table's stored rows.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.tables[table]))
	for i, row := range s.tables[table] {
		out[i] = s.render(table, row)
	}
	return out
}

// Seed stores rows directly, assigning ids where missing.
func (s *Server) Seed(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], s.prepare(row))
	}
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != AnonKey {
			writeError(w, http.StatusUnauthorized, "", "No API key found in request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failure(method, table string) (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method+" "+table]++
	f, ok := s.failures[method+" "+table]
	return f, ok
}

// --- auth ---

func (s *Server) issue(userID string) map[string]any {
	exp := time.Now().Add(s.tokenTTL)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"jti": uuid.New().String(),
	}).SignedString(signingKey)
	refreshToken := uuid.New().String()
	s.tokens[token] = userID
	s.refresh[refreshToken] = userID
	return map[string]any{
		"access_token":  token,
		"token_type":    "bearer",
		"expires_in":    int(s.tokenTTL.Seconds()),
		"refresh_token": refreshToken,
		"user":          s.userJSON(userID),
	}
}

func (s *Server) userJSON(id string) map[string]any {
	for _, a := range s.accounts {
		if a.id == id {
			return map[string]any{"id": a.id, "email": a.email, "role": "authenticated"}
		}
	}
	return nil
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.failure(r.Method, "auth"); ok {
		writeFailure(w, f)
		return
	}
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.URL.Query().Get("grant_type") {
	case "password":
		a, ok := s.accounts[body["email"]]
		if !ok || a.password != body["password"] {
			writeAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid login credentials")
			return
		}
		writeJSON(w, http.StatusOK, s.issue(a.id))
	case "refresh_token":
		userID, ok := s.refresh[body["refresh_token"]]
		if !ok {
			writeAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token")
			return
		}
		delete(s.refresh, body["refresh_token"])
		writeJSON(w, http.StatusOK, s.issue(userID))
	default:
		writeAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
	}
}

func (s *Server) bearer(r *http.Request) (string, string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", "", false
	}
	if _, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return signingKey, nil }, jwt.WithValidMethods([]string{"HS256"})); err != nil {
		return "", "", false
	}
	return token, userID, true
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.failure(r.Method, "auth"); ok {
		writeFailure(w, f)
		return
	}
	_, userID, ok := s.bearer(r)
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	s.mu.Lock()
	u := s.userJSON(userID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.failure(r.Method, "auth"); ok {
		writeFailure(w, f)
		return
	}
	token, userID, ok := s.bearer(r)
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	s.mu.Lock()
	delete(s.tokens, token)
	for rt, id := range s.refresh {
		if id == userID {
			delete(s.refresh, rt)
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// --- rest ---

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if f, ok := s.failure(r.Method, table); ok {
		writeFailure(w, f)
		return
	}

	q := r.URL.Query()
	filters := map[string]string{}
	for k, v := range q {
		if len(v) > 0 && strings.HasPrefix(v[0], "eq.") {
			filters[k] = strings.TrimPrefix(v[0], "eq.")
		}
	}
	represent := strings.Contains(r.Header.Get("Prefer"), "return=representation")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		rows := s.match(table, filters)
		sortRows(rows, q.Get("order"))
		writeJSON(w, http.StatusOK, s.renderAll(table, rows))

	case http.MethodPost:
		rows, err := decodeRows(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		merge := strings.Contains(r.Header.Get("Prefer"), "resolution=merge-duplicates")
		conflict := q.Get("on_conflict")
		if conflict == "" {
			conflict = "id"
		}
		var out []map[string]any
		for _, row := range rows {
			if merge {
				if existing := s.find(table, conflict, row[conflict]); existing != nil {
					for k, v := range row {
						existing[k] = v
					}
					out = append(out, existing)
					continue
				}
			}
			stored := s.prepare(row)
			s.tables[table] = append(s.tables[table], stored)
			out = append(out, stored)
		}
		if represent {
			writeJSON(w, http.StatusCreated, s.renderAll(table, out))
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		var values map[string]any
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		rows := s.match(table, filters)
		for _, row := range rows {
			for k, v := range values {
				row[k] = v
			}
		}
		if represent {
			writeJSON(w, http.StatusOK, s.renderAll(table, rows))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		var kept, removed []map[string]any
		for _, row := range s.tables[table] {
			if rowMatches(row, filters) {
				removed = append(removed, row)
			} else {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		if represent {
			writeJSON(w, http.StatusOK, s.renderAll(table, removed))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
	}
}

func decodeRows(r *http.Request) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var rows []map[string]any
		err := json.Unmarshal(raw, &rows)
		return rows, err
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return []map[string]any{row}, nil
}

func (s *Server) prepare(row map[string]any) map[string]any {
	stored := make(map[string]any, len(row)+2)
	for k, v := range row {
		stored[k] = v
	}
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.New().String()
	}
	if _, ok := stored["created_at"]; !ok {
		s.seq++
		stored["created_at"] = s.clock.Add(time.Duration(s.seq) * time.Millisecond).Format(time.RFC3339Nano)
	}
	return stored
}

func (s *Server) find(table, column string, value any) map[string]any {
	for _, row := range s.tables[table] {
		if fmt.Sprint(row[column]) == fmt.Sprint(value) {
			return row
		}
	}
	return nil
}

func (s *Server) match(table string, filters map[string]string) []map[string]any {
	var out []map[string]any
	for _, row := range s.tables[table] {
		if rowMatches(row, filters) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row map[string]any, filters map[string]string) bool {
	for col, want := range filters {
		if formatValue(row[col]) != want {
			return false
		}
	}
	return true
}

func sortRows(rows []map[string]any, order string) {
	if order == "" {
		return
	}
	keys := strings.Split(order, ",")
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			col, dir, _ := strings.Cut(key, ".")
			c := compare(rows[i][col], rows[j][col])
			if c == 0 {
				continue
			}
			if dir == "desc" {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b any) int {
	af, aerr := strconv.ParseFloat(formatValue(a), 64)
	bf, berr := strconv.ParseFloat(formatValue(b), 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(formatValue(a), formatValue(b))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (s *Server) render(table string, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if f, ok := v.(float64); ok && s.text[table][k] {
			out[k] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Server) renderAll(table string, rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = s.render(table, row)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"code": code, "message": message, "details": nil, "hint": nil})
}

func writeFailure(w http.ResponseWriter, f Failure) {
	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeError(w, status, f.Code, f.Message)
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]any{"error": code, "error_description": description})
}
