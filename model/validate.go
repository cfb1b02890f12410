package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"PracticeLog/core/errs"
)

// Field bounds shared by songs, sections and sessions.
const (
	MaxTitleLength       = 200
	MaxArtistLength      = 200
	MaxSectionNameLength = 100
	MinTempo             = 1
	MaxTempo             = 400
	MinDuration          = 1
	MaxDuration          = 1440
	MinRating            = 1
	MaxRating            = 5
)

func checkLength(v *errs.ValidationError, field, s string, min, max int) {
	n := utf8.RuneCountInString(s)
	switch {
	case n < min:
		v.Add(field, fmt.Sprintf("must have at least %d characters", min))
	case n > max:
		v.Add(field, fmt.Sprintf("must have at most %d characters", max))
	}
}

func checkRange(v *errs.ValidationError, field string, n, min, max int) {
	if n < min || n > max {
		v.Add(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
}

func checkOptionalRange(v *errs.ValidationError, field string, n *int, min, max int) {
	if n != nil {
		checkRange(v, field, *n, min, max)
	}
}

func checkUUID(v *errs.ValidationError, field, s string) {
	if _, err := uuid.Parse(s); err != nil {
		v.Add(field, "must be a valid UUID")
	}
}

// NormalizeID parses s as a UUID and returns its canonical lowercase form.
func NormalizeID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func normalizeOrKeep(s string) string {
	if id, err := NormalizeID(s); err == nil {
		return id
	}
	return s
}
