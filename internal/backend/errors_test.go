package backend

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Error
	}{
		{
			name:   "rest",
			status: 409,
			body:   `{"code":"23505","message":"duplicate key value","details":"Key (id)=(1) already exists.","hint":null}`,
			want:   Error{Status: 409, Code: "23505", Message: "duplicate key value", Details: "Key (id)=(1) already exists."},
		},
		{
			name:   "oauth style",
			status: 400,
			body:   `{"error":"invalid_grant","error_description":"Invalid login credentials"}`,
			want:   Error{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"},
		},
		{
			name:   "numeric code with msg",
			status: 422,
			body:   `{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`,
			want:   Error{Status: 422, Code: "weak_password", Message: "Password should be at least 6 characters"},
		},
		{
			name:   "plain text",
			status: 502,
			body:   "upstream down",
			want:   Error{Status: 502, Message: "upstream down"},
		},
		{
			name:   "empty",
			status: 503,
			body:   "",
			want:   Error{Status: 503, Message: http.StatusText(503)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseError(tt.status, []byte(tt.body))
			if *got != tt.want {
				t.Errorf("parseError = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(cardinalityError(0)) {
		t.Error("cardinality error should be no rows")
	}
	wrapped := fmt.Errorf("loading: %w", &Error{Code: CodeNoRows})
	if !IsNoRows(wrapped) {
		t.Error("wrapped no-rows error not detected")
	}
	if IsNoRows(&Error{Code: "23505"}) || IsNoRows(errors.New("x")) || IsNoRows(nil) {
		t.Error("false positive")
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(&Error{Status: 403}); got != 403 {
		t.Errorf("StatusCode = %d", got)
	}
	if got := StatusCode(errors.New("x")); got != 0 {
		t.Errorf("StatusCode(plain) = %d", got)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Code: "PGRST116", Message: "no rows", Details: "0 rows"}
	if got := e.Error(); got != "PGRST116: no rows (0 rows)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestQueryRequest(t *testing.T) {
	c, err := New("http://example.test", "k")
	if err != nil {
		t.Fatal(err)
	}

	req := c.From("trades").Select("*").Eq("user_id", "u1").Order("date", true).request()
	if req.method != http.MethodGet || req.path != "/rest/v1/trades" {
		t.Errorf("method/path = %s %s", req.method, req.path)
	}
	if got := req.query.Encode(); got != "order=date.asc&select=%2A&user_id=eq.u1" {
		t.Errorf("query = %s", got)
	}

	req = c.From("settings").Upsert(Row{"user_id": "u1"}, "user_id").Select("").request()
	if req.headers["Prefer"] != "return=representation,resolution=merge-duplicates" {
		t.Errorf("Prefer = %q", req.headers["Prefer"])
	}
	if req.query.Get("on_conflict") != "user_id" {
		t.Errorf("on_conflict = %q", req.query.Get("on_conflict"))
	}

	req = c.From("brokers").Delete().Eq("id", 7).request()
	if req.method != http.MethodDelete || req.query.Get("id") != "eq.7" || req.headers["Prefer"] != "return=minimal" {
		t.Errorf("delete request = %+v", req)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:54321", "ftp://x", "http://"} {
		if _, err := New(u, "k"); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
}
