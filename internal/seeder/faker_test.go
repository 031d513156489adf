package seeder

import (
	"errors"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"testing"
)

func TestProviders(t *testing.T) {
	names := Providers()
	if !sort.StringsAreSorted(names) {
		t.Error("Expected providers in sorted order")
	}
	for _, name := range names {
		if !IsProvider(name) {
			t.Errorf("Expected %s to be a provider", name)
		}
		if strings.Count(name, ".") != 1 {
			t.Errorf("Expected group.name form, got %s", name)
		}
	}

	for _, name := range []string{"person", "person.nope", "nope.firstName", "", "."} {
		if IsProvider(name) {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestFakerEveryProvider(t *testing.T) {
	f := NewFaker(rand.New(rand.NewSource(1)))
	for _, name := range Providers() {
		v, err := f.Draw(name, false)
		if err != nil {
			t.Errorf("Failed to draw %s: %v", name, err)
			continue
		}
		if v == nil || v == "" {
			t.Errorf("Expected a value from %s, got %v", name, v)
		}
	}
}

func TestFakerShapes(t *testing.T) {
	f := NewFaker(rand.New(rand.NewSource(2)))
	tests := []struct {
		provider string
		pattern  string
	}{
		{"internet.email", `^[a-z0-9._]+@[a-z0-9.-]+\.[a-z]+$`},
		{"datetime.date", `^\d{4}-\d{2}-\d{2}$`},
		{"datetime.time", `^\d{2}:\d{2}:\d{2}$`},
		{"datetime.dateTime", `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`},
		{"misc.uuid", `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`},
		{"address.postcode", `^\d{5}$`},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			v, err := f.Draw(tt.provider, false)
			if err != nil {
				t.Fatalf("Failed to draw: %v", err)
			}
			s, ok := v.(string)
			if !ok || !regexp.MustCompile(tt.pattern).MatchString(s) {
				t.Errorf("Expected %v to match %s", v, tt.pattern)
			}
		})
	}
}

func TestFakerDeterministic(t *testing.T) {
	a := NewFaker(rand.New(rand.NewSource(99)))
	b := NewFaker(rand.New(rand.NewSource(99)))
	for _, name := range Providers() {
		va, _ := a.Draw(name, false)
		vb, _ := b.Draw(name, false)
		if va != vb {
			t.Errorf("Expected same value from %s for the same seed, got %v and %v", name, va, vb)
		}
	}
}

func TestFakerUniqueDraws(t *testing.T) {
	f := NewFaker(rand.New(rand.NewSource(3)))

	seen := make(map[interface{}]bool)
	for i := 0; i < 2; i++ {
		v, err := f.Draw("misc.boolean", true)
		if err != nil {
			t.Fatalf("Failed unique draw %d: %v", i, err)
		}
		if seen[v] {
			t.Errorf("Expected a new value, got repeated %v", v)
		}
		seen[v] = true
	}

	if _, err := f.Draw("misc.boolean", true); !errors.Is(err, ErrUniqueExhausted) {
		t.Errorf("Expected ErrUniqueExhausted, got %v", err)
	}
	if _, err := f.Draw("misc.boolean", false); err != nil {
		t.Errorf("Expected non-unique draw to succeed, got %v", err)
	}
}

func TestFakerUnknownProvider(t *testing.T) {
	f := NewFaker(rand.New(rand.NewSource(4)))
	if _, err := f.Draw("person.nickname", false); err == nil {
		t.Error("Expected unknown provider to fail")
	}
}
