package validation

import (
	"testing"
)

func TestLoginNamePattern(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"plain word", "alice", true},
		{"digits and underscore", "user_42", true},
		{"uppercase", "Alice", true},
		{"space", "alice smith", false},
		{"dash", "alice-smith", false},
		{"dot", "alice.smith", false},
		{"empty", "", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := loginNameRe.MatchString(test.input); got != test.valid {
				t.Errorf("loginNameRe.MatchString(%q) = %v, want %v", test.input, got, test.valid)
			}
		})
	}
}

func TestToDetails_NilError(t *testing.T) {
	if ToDetails(nil) != nil {
		t.Error("ToDetails(nil) should be nil")
	}
}

func TestToDetails_UnknownError(t *testing.T) {
	got := ToDetails(errTest{})
	if got["payload"] != "invalid payload" {
		t.Errorf("fallback = %v, want payload message", got)
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
