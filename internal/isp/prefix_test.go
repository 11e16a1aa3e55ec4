package isp

import "testing"

func TestPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "NothingToPrefix",
			in:   "body { color: red; }\n",
			want: "body { color: red; }\n",
		},
		{
			name: "PropertyPrefix",
			in:   "a {\n  user-select: none;\n}\n",
			want: "a {\n  -webkit-user-select: none;\n  user-select: none;\n}\n",
		},
		{
			name: "MultiplePrefixes",
			in:   "a { appearance: none; }",
			want: "a { -webkit-appearance: none; -moz-appearance: none; appearance: none; }",
		},
		{
			name: "ValuePrefix",
			in:   "nav { position: sticky; top: 0; }",
			want: "nav { position: -webkit-sticky; position: sticky; top: 0; }",
		},
		{
			name: "ValueRuleOnlyMatchesItsValue",
			in:   "nav { position: relative; background-clip: border-box; }",
			want: "nav { position: relative; background-clip: border-box; }",
		},
		{
			name: "Minified",
			in:   "a{user-select:none}",
			want: "a{-webkit-user-select:none;user-select:none}",
		},
		{
			name: "Important",
			in:   "a { user-select: none !important; }",
			want: "a { -webkit-user-select: none !important; user-select: none !important; }",
		},
		{
			name: "SelectorWithColon",
			in:   "a:hover { color: red; }\nuser-select:hover { color: blue; }",
			want: "a:hover { color: red; }\nuser-select:hover { color: blue; }",
		},
		{
			name: "NestedInMedia",
			in:   "@media (min-width: 10px) { a { backdrop-filter: blur(2px); } }",
			want: "@media (min-width: 10px) { a { -webkit-backdrop-filter: blur(2px); backdrop-filter: blur(2px); } }",
		},
		{
			name: "AlreadyPrefixed",
			in:   "a { -webkit-user-select: none; user-select: none; }",
			want: "a { -webkit-user-select: none; user-select: none; }",
		},
		{
			name: "CommentsKept",
			in:   "/* keep */\na { /* here */ color: red; }",
			want: "/* keep */\na { /* here */ color: red; }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prefix(tt.in)
			if err != nil {
				t.Fatalf("Prefix() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Prefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrefixIsIdempotent(t *testing.T) {
	inputs := []string{
		"a { user-select: none; appearance: none; }",
		"nav { position: sticky; }\n.x { mask-image: url(a.png); }",
		"a{text-size-adjust:100%}",
	}
	for _, in := range inputs {
		once, err := Prefix(in)
		if err != nil {
			t.Fatalf("Prefix() error = %v", err)
		}
		twice, err := Prefix(once)
		if err != nil {
			t.Fatalf("Prefix() error = %v", err)
		}
		if once != twice {
			t.Errorf("Prefix(Prefix(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestStripImportant(t *testing.T) {
	tests := map[string]string{
		"none":                "none",
		"none !important":     "none",
		"none  !IMPORTANT ":   "none",
		"url(!important.png)": "url(!important.png)",
	}
	for in, want := range tests {
		if got := stripImportant(in); got != want {
			t.Errorf("stripImportant(%q) = %q, want %q", in, got, want)
		}
	}
}
