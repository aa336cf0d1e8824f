package service

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWordErrorRate(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     float64
	}{
		{"exact match", "JUAN SANTOS DELA CRUZ", "JUAN SANTOS DELA CRUZ", 0},
		{"case insensitive", "Juan Santos", "JUAN SANTOS", 0},
		{"one substitution of four", "JUAN SANTOS DELA CRUZ", "JUAN SANTOS DELA CRUX", 0.25},
		{"one deletion of four", "JUAN SANTOS DELA CRUZ", "JUAN SANTOS DELA", 0.25},
		{"one insertion", "JUAN CRUZ", "JUAN SANTOS CRUZ", 0.5},
		{"completely different", "JUAN CRUZ", "MARIA SANTOS", 1},
		{"both empty", "", "", 0},
		{"empty expected", "", "JUAN", 1},
		{"empty actual", "JUAN CRUZ", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WordErrorRate(tt.expected, tt.actual)
			if !almostEqual(got, tt.want) {
				t.Errorf("WordErrorRate(%q, %q) = %f, want %f", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestCharErrorRate(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     float64
	}{
		{"exact match", "JUAN CRUZ", "JUAN CRUZ", 0},
		{"case insensitive", "juan cruz", "JUAN CRUZ", 0},
		{"one substitution of nine", "JUAN CRUZ", "JUAN CRUX", 1.0 / 9.0},
		{"both empty", "", "", 0},
		{"empty expected", "", "X", 1},
		{"full deletion", "AB", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CharErrorRate(tt.expected, tt.actual)
			if !almostEqual(got, tt.want) {
				t.Errorf("CharErrorRate(%q, %q) = %f, want %f", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}
