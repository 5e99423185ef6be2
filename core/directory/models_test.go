package directory

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "MIT", want: "mit"},
		{name: "spaces to dashes", in: "Stanford University", want: "stanford-university"},
		{name: "extra whitespace collapsed", in: "  University   of  Michigan ", want: "university-of-michigan"},
		{name: "punctuation stripped", in: "St. John's College", want: "st-johns-college"},
		{name: "dashes deduplicated", in: "A -- B", want: "a-b"},
		{name: "leading and trailing dashes trimmed", in: "!wow!", want: "wow"},
		{name: "digits kept", in: "42 Silicon Valley", want: "42-silicon-valley"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
