package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// CodeNoRows is the service's code for a single-row request that matched
// nothing.
const CodeNoRows = "PGRST116"

// Error is an error reply from the service, passed to callers as is.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "%s: ", e.Code)
	}
	b.WriteString(e.Message)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

// IsNoRows reports whether err means a single-row request found nothing.
func IsNoRows(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNoRows
}

// StatusCode returns the HTTP status carried by a service error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// errorBody covers both the REST shape (code/message/details/hint) and the
// auth shapes (error/error_description, msg/error_code).
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          json.RawMessage `json:"details"`
	Hint             json.RawMessage `json:"hint"`
	Msg              string          `json:"msg"`
	ErrorCode        string          `json:"error_code"`
	ErrorName        string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseError(status int, data []byte) *Error {
	e := &Error{Status: status}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		e.Message = strings.TrimSpace(string(data))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	e.Code = rawString(body.Code)
	e.Message = body.Message
	e.Details = rawString(body.Details)
	e.Hint = rawString(body.Hint)

	if body.ErrorCode != "" {
		e.Code = body.ErrorCode
	} else if e.Code == "" || isNumber(e.Code) {
		if body.ErrorName != "" {
			e.Code = body.ErrorName
		}
	}
	for _, m := range []string{body.Msg, body.ErrorDescription} {
		if e.Message == "" {
			e.Message = m
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
