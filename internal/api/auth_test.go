package api

import (
	"net/http"
	"testing"
)

func TestValidateToken(t *testing.T) {
	cases := []struct {
		name       string
		provided   string
		configured string
		want       bool
	}{
		{"match", "secret", "secret", true},
		{"mismatch", "wrong", "secret", false},
		{"empty provided", "", "secret", false},
		{"empty configured", "secret", "", false},
		{"both empty", "", "", false},
		{"length mismatch", "secre", "secret", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateToken(tc.provided, tc.configured); got != tc.want {
				t.Errorf("ValidateToken(%q, %q) = %v, want %v", tc.provided, tc.configured, got, tc.want)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
		{"whitespace token", "Bearer    ", "", true},
		{"trims padding", "Bearer  abc123 ", "abc123", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/v1/sources", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, err := ExtractToken(req)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractToken: %v", err)
			}
			if got != tc.want {
				t.Errorf("token = %q, want %q", got, tc.want)
			}
		})
	}
}
