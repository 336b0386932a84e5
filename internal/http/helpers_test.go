package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"finanzas/internal/core"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   string
		want    core.Period
		wantErr bool
	}{
		{
			name:  "explicit year and month",
			query: "?year=2024&month=2",
			want:  core.Period{Year: 2024, Month: 2},
		},
		{
			name:  "defaults to current month",
			query: "",
			want:  core.Period{Year: 2025, Month: 6},
		},
		{
			name:    "month out of range",
			query:   "?year=2024&month=13",
			wantErr: true,
		},
		{
			name:    "month without year",
			query:   "?month=5",
			wantErr: true,
		},
		{
			name:    "non-numeric year",
			query:   "?year=abc&month=5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/dashboard"+tt.query, nil)
			got, err := parsePeriod(r, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("period = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12,50", 1250, false},
		{"12.50", 1250, false},
		{"0", 0, false},
		{"1250", 125000, false},
		{"-5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAmount(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmount(%q): %v", tt.in, err)
			}
			if got.Cents != tt.want {
				t.Errorf("parseAmount(%q) = %d, want %d", tt.in, got.Cents, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  rent  ", "rent"},
		{"strips control characters", "re\x00nt\x1b", "rent"},
		{"keeps unicode", "café", "café"},
		{"keeps tabs", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.in); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
