package review

import (
	"errors"
	"testing"

	"reviewsearch/internal/domain"
)

func TestRegexExtractor(t *testing.T) {
	e := NewRegexExtractor()
	tests := []struct {
		text string
		want string
	}{
		{"I love my new Kindle Paperwhite so much", "Kindle Paperwhite"},
		{"the Echo Dot and the Fire Stick", "Echo Dot"},
		{"great budget phone", domain.UnknownProduct},
		{"Great", domain.UnknownProduct},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := e.Extract(tt.text); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestEntityExtractor(t *testing.T) {
	e := NewEntityExtractor()
	tests := []struct {
		text string
		want string
	}{
		{"I bought the Samsung Galaxy S21 last week.", "Samsung Galaxy S21"},
		{"love my iPhone 12 so much", "iPhone 12"},
		{"Shipped by Acme Widgets Inc. quickly", "Acme Widgets Inc"},
		{"Great Value for the money", domain.UnknownProduct},
		{"great budget phone", domain.UnknownProduct},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := e.Extract(tt.text); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewProductExtractor(t *testing.T) {
	for name, want := range map[string]string{"": "regex", "regex": "regex", "entity": "entity", "NER": "entity"} {
		e, err := NewProductExtractor(name)
		if err != nil {
			t.Fatalf("NewProductExtractor(%q): %v", name, err)
		}
		if e.Name() != want {
			t.Errorf("NewProductExtractor(%q) = %s, want %s", name, e.Name(), want)
		}
	}
	if _, err := NewProductExtractor("llm"); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
