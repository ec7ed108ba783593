package dto

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Rookie Racer Camp", "rookie-racer-camp"},
		{"  Competition Prep  ", "competition-prep"},
		{"Lines & Braking 101", "lines-braking-101"},
		{"---", ""},
		{"Déjà Vu Cup", "d-j-vu-cup"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
