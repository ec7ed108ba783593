package helper

import (
	"strings"
	"testing"
)

func TestSafeOrderClause(t *testing.T) {
	allowed := map[string]string{
		"created_at": "enrollment_created_at",
		"amount":     "enrollment_payment_amount",
	}

	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		want      string
	}{
		{"known column asc", "amount", "asc", "ORDER BY enrollment_payment_amount ASC"},
		{"known column desc", "amount", "desc", "ORDER BY enrollment_payment_amount DESC"},
		{"empty falls back to default", "", "", "ORDER BY enrollment_created_at DESC"},
		{"unknown column falls back", "password; DROP TABLE", "asc", "ORDER BY enrollment_created_at ASC"},
		{"bad direction becomes desc", "amount", "sideways", "ORDER BY enrollment_payment_amount DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{SortBy: tt.sortBy, SortOrder: tt.sortOrder}
			got, err := p.SafeOrderClause(allowed, "created_at")
			if err != nil {
				t.Fatalf("SafeOrderClause: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if strings.Contains(got, ";") {
				t.Fatal("clause must never carry raw input")
			}
		})
	}
}

func TestSafeOrderClauseNoDefault(t *testing.T) {
	p := Params{SortBy: "nope"}
	if _, err := p.SafeOrderClause(map[string]string{}, "missing"); err == nil {
		t.Fatal("expected error when the default key is not allowed")
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, PerPage: 25}
	if p.Offset() != 50 {
		t.Fatalf("offset = %d, want 50", p.Offset())
	}
	if p.Limit() != 25 {
		t.Fatalf("limit = %d, want 25", p.Limit())
	}
}
