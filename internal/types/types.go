// Package types holds all shared data structures (models) used across
// the application. The store, the storage adapters, the validator and the
// handlers all import types without depending on each other.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Student is one stored student record.
//
// ID, CreatedAt and UpdatedAt are never taken from a client: the storage
// adapter assigns ID on insert and the record store stamps both times.
type Student struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	StudentNumber  string    `json:"studentNumber"`
	Department     string    `json:"department"`
	EnrollmentYear int       `json:"enrollmentYear"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StudentInput is the unvalidated field set a caller submits for a create
// or an update. Updates replace every field, there are no partial patches.
//
// validate:"..." tags are checked by internal/validation; the custom tags
// (notblank, department, enrollment_year, basic_email) are registered there.
type StudentInput struct {
	FullName       string `json:"fullName"       yaml:"fullName"       validate:"notblank"`
	StudentNumber  string `json:"studentNumber"  yaml:"studentNumber"  validate:"notblank"`
	Department     string `json:"department"     yaml:"department"     validate:"notblank,department"`
	EnrollmentYear Year   `json:"enrollmentYear" yaml:"enrollmentYear" validate:"required,enrollment_year"`
	Email          string `json:"email"          yaml:"email"          validate:"notblank,basic_email"`
	Phone          string `json:"phone"          yaml:"phone"`
	Address        string `json:"address"        yaml:"address"`
}

// Apply copies the mutable fields of in onto s. The caller must have
// validated in first; ID and the timestamps are left alone.
func (s Student) Apply(in StudentInput) Student {
	year, _ := in.EnrollmentYear.Int()

	s.FullName = strings.TrimSpace(in.FullName)
	s.StudentNumber = strings.TrimSpace(in.StudentNumber)
	s.Department = strings.TrimSpace(in.Department)
	s.EnrollmentYear = year
	s.Email = strings.TrimSpace(in.Email)
	s.Phone = in.Phone
	s.Address = in.Address
	return s
}

// Year is an enrollment year as submitted by a client.
//
// HTML forms send numbers as strings, so both 2022 and "2022" decode.
// The raw text is kept as-is: a value like "abc" is NOT a decode error,
// it is reported by the validator as a field error alongside the others.
type Year string

// YearOf returns the Year for an integer.
func YearOf(y int) Year { return Year(strconv.Itoa(y)) }

// Int parses the year. ok is false when the value is absent, non-numeric
// or has a fractional part. Integral decimals such as "2022.0" are accepted.
// Numbers too large for an int saturate, so they fail a range check
// instead of reading as non-numeric.
func (y Year) Int() (int, bool) {
	text := strings.TrimSpace(string(y))
	if text == "" || strings.Trim(text, "+-0123456789.eE") != "" {
		return 0, false
	}

	n, err := strconv.Atoi(text)
	if err == nil {
		return n, true
	}
	if errors.Is(err, strconv.ErrRange) {
		if text[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, true
	case f <= math.MinInt:
		return math.MinInt, true
	}
	return int(f), true
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*y = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			// booleans, objects, arrays: keep the text so validation rejects it
			*y = Year(data)
			return nil
		}
		*y = Year(n.String())
		return nil
	}
}

// UnmarshalYAML keeps the scalar text so seed files go through the same
// validation path as JSON requests.
func (y *Year) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*y = ""
		return nil
	}
	*y = Year(value.Value)
	return nil
}
