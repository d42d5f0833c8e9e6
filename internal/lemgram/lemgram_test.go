package lemgram

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "pipe wrapped compound",
			in:   "|förslag_2 |förslag_2..nn.1|förslag..nn.1|",
			want: "förslag..nn.1",
		},
		{
			name: "already canonical",
			in:   "djur..nn.1",
			want: "djur..nn.1",
		},
		{
			name: "compound infix",
			in:   "förslag_2..nn.1",
			want: "förslag..nn.1",
		},
		{
			name: "compound tail on bare lemma",
			in:   "förslag_2",
			want: "förslag",
		},
		{
			name: "stacked compound infix",
			in:   "förslag_2_3..nn.1",
			want: "förslag..nn.1",
		},
		{
			name: "stacked compound tail",
			in:   "a_2_3",
			want: "a",
		},
		{
			name: "surrounding whitespace",
			in:   "  katt..nn.1  ",
			want: "katt..nn.1",
		},
		{
			name: "pipes with no canonical segment",
			in:   "|giftig orm|huggorm|",
			want: "huggorm",
		},
		{
			name: "en dash unified",
			in:   "tv–spel..nn.1",
			want: "tv-spel..nn.1",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "only pipes",
			in:   "|||",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"|förslag_2 |förslag_2..nn.1|förslag..nn.1|",
		"djur..nn.1",
		"förslag_2",
		"a_2_3",
		"förslag_2_3..nn.1",
		"  spaced  ",
		"not a lemgram at all",
		"",
		"a..b..c",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestBase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"djur..nn.1", "djur"},
		{"människa..1", "människa"},
		{"djur", "djur"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Base(tc.in); got != tc.want {
			t.Errorf("Base(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !isCanonical("förslag..nn.1") {
		t.Error("expected förslag..nn.1 to be canonical")
	}
	if isCanonical("förslag") {
		t.Error("expected bare lemma to not be canonical")
	}
	if isCanonical("katt..1") {
		t.Error("expected sense id to not be canonical")
	}
}
