package types

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestYear_Int(t *testing.T) {
	tests := []struct {
		in     Year
		want   int
		wantOK bool
	}{
		{"2022", 2022, true},
		{" 2022 ", 2022, true},
		{"2022.0", 2022, true},
		{"2.022e3", 2022, true},
		{"99999999999999999999", math.MaxInt, true},
		{"-99999999999999999999", math.MinInt, true},
		{"2022.5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"0x7e6", 0, false},
		{"true", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.in.Int()
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Year(%q).Int() = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestYear_UnmarshalJSON(t *testing.T) {
	tests := map[string]Year{
		`{"enrollmentYear":2022}`:   "2022",
		`{"enrollmentYear":"2022"}`: "2022",
		`{"enrollmentYear":null}`:   "",
		`{"enrollmentYear":true}`:   "true",
	}
	for body, want := range tests {
		var in StudentInput
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if in.EnrollmentYear != want {
			t.Errorf("%s: got %q, want %q", body, in.EnrollmentYear, want)
		}
	}
}

func TestYear_UnmarshalYAML(t *testing.T) {
	var in StudentInput
	if err := yaml.Unmarshal([]byte("enrollmentYear: 2021\n"), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.EnrollmentYear != "2021" {
		t.Errorf("got %q, want 2021", in.EnrollmentYear)
	}
}
