package postgrest

import (
	"fmt"

	"github.com/tidwall/gjson"

	"PracticeLog/core/errs"
)

// codeNoRows is returned by PostgREST when a singular response has zero rows.
const codeNoRows = "PGRST116"

// Error is a PostgREST error response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Hint       string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("postgrest %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap maps "no rows" onto errs.ErrNotFound.
func (e *Error) Unwrap() error {
	if e.Code == codeNoRows {
		return errs.ErrNotFound
	}
	return nil
}

func parseError(body []byte, status int) error {
	if !gjson.ValidBytes(body) {
		return &Error{StatusCode: status, Code: "unknown", Message: string(body)}
	}
	r := gjson.ParseBytes(body)
	msg := r.Get("message").String()
	if msg == "" {
		msg = r.Get("error").String()
	}
	return &Error{
		StatusCode: status,
		Code:       r.Get("code").String(),
		Message:    msg,
		Details:    r.Get("details").String(),
		Hint:       r.Get("hint").String(),
	}
}
