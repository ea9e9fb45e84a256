package language

import "testing"

func TestCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"english", "en", true},
		{"English", "en", true},
		{" GERMAN ", "de", true},
		{"haitian creole", "ht", true},
		{"en", "en", true},
		{"haw", "haw", true},
		{"en-US", "en", true},
		{"pt-BR", "pt", true},
		{"eng", "en", true},
		{"jv", "jw", true},
		{"javanese", "jw", true},
		{"klingon", "", false},
		{"", "", false},
		{"Auto", "", false},
	}
	for _, tc := range tests {
		got, ok := Code(tc.input)
		if got != tc.expected || ok != tc.ok {
			t.Fatalf("Code(%q) = %q,%v want %q,%v", tc.input, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"english":       "English",
		"ht":            "Haitian Creole",
		"fr":            "French",
		"  something  ": "something",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNamesOrderAndCount(t *testing.T) {
	names := Names()
	if len(names) != 99 {
		t.Fatalf("expected 99 languages, got %d", len(names))
	}
	if names[0] != "english" || names[len(names)-1] != "sundanese" {
		t.Fatalf("unexpected ordering: first=%q last=%q", names[0], names[len(names)-1])
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate language %q", name)
		}
		seen[name] = struct{}{}
		if !Supported(name) {
			t.Fatalf("expected %q to be supported", name)
		}
	}
}
