// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		envSet   bool
		want     string
	}{
		{name: "environment variable set", key: "TEST_STRING", envValue: "from-env", envSet: true, want: "from-env"},
		{name: "environment variable not set", key: "TEST_STRING_UNSET", want: "default"},
		{name: "environment variable empty string", key: "TEST_STRING_EMPTY", envValue: "", envSet: true, want: "default"},
		{name: "sensitive variable (password)", key: "TEST_PASSWORD", envValue: "secret123", envSet: true, want: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := ParseString(tt.key, "default"); got != tt.want {
				t.Errorf("ParseString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInt64(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		envSet   bool
		want     int64
	}{
		{name: "valid integer", envValue: "100", envSet: true, want: 100},
		{name: "surrounding whitespace", envValue: " 250 ", envSet: true, want: 250},
		{name: "beyond int32", envValue: "5368709120", envSet: true, want: 5368709120},
		{name: "invalid integer", envValue: "not-a-number", envSet: true, want: 42},
		{name: "empty string", envValue: "", envSet: true, want: 42},
		{name: "not set", want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv("TEST_INT64", tt.envValue)
			}
			if got := ParseInt64("TEST_INT64", 42); got != tt.want {
				t.Errorf("ParseInt64() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	t.Setenv("TEST_INT", "7")
	if got := ParseInt("TEST_INT", 1); got != 7 {
		t.Errorf("ParseInt() = %v, want 7", got)
	}
	if got := ParseInt("TEST_INT_UNSET", 3); got != 3 {
		t.Errorf("ParseInt() = %v, want 3", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		envSet   bool
		want     time.Duration
	}{
		{name: "valid duration", envValue: "10s", envSet: true, want: 10 * time.Second},
		{name: "complex duration", envValue: "1h30m45s", envSet: true, want: time.Hour + 30*time.Minute + 45*time.Second},
		{name: "invalid duration", envValue: "not-a-duration", envSet: true, want: 5 * time.Second},
		{name: "empty string", envValue: "", envSet: true, want: 5 * time.Second},
		{name: "not set", want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv("TEST_DURATION", tt.envValue)
			}
			if got := ParseDuration("TEST_DURATION", 5*time.Second); got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		envValue string
		envSet   bool
		def      bool
		want     bool
	}{
		{envValue: "true", envSet: true, want: true},
		{envValue: "TRUE", envSet: true, want: true},
		{envValue: "1", envSet: true, want: true},
		{envValue: "yes", envSet: true, want: true},
		{envValue: "on", envSet: true, want: true},
		{envValue: "false", envSet: true, def: true, want: false},
		{envValue: "0", envSet: true, def: true, want: false},
		{envValue: "no", envSet: true, def: true, want: false},
		{envValue: "off", envSet: true, def: true, want: false},
		{envValue: "maybe", envSet: true, def: true, want: true},
		{envValue: "", envSet: true, def: true, want: true},
		{envSet: false, def: false, want: false},
	}

	for _, tt := range tests {
		t.Run("value="+tt.envValue, func(t *testing.T) {
			if tt.envSet {
				t.Setenv("TEST_BOOL", tt.envValue)
			}
			if got := ParseBool("TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("ParseBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := ParseFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("ParseFloat() = %v, want 0.25", got)
	}
	t.Setenv("TEST_FLOAT", "abc")
	if got := ParseFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("ParseFloat() = %v, want 1", got)
	}
}
