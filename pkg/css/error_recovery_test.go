package css

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestErrorRecovery_InvalidSelectors verifies that rules with invalid selectors
// are silently skipped while valid rules are still parsed.
func TestErrorRecovery_InvalidSelectors(t *testing.T) {
	tests := []struct {
		name          string
		css           string
		expectedRules int
		description   string
	}{
		{
			name:          "selector starting with closing brace",
			css:           `} { color: red; } p { color: blue; }`,
			expectedRules: 1,
			description:   "rule with } selector skipped, p rule kept",
		},
		{
			name:          "selector starting with semicolon",
			css:           `{; color: red; } p { color: blue; }`,
			expectedRules: 1,
			description:   "rule with {; selector skipped, p rule kept",
		},
		{
			name:          "unbalanced bracket in selector",
			css:           `[} { color: red; } p { color: green; }`,
			expectedRules: 1,
			description:   "rule with [} selector skipped, p rule kept",
		},
		{
			name:          "pseudo-class and attribute selectors",
			css:           `a:hover { color: red; } input[type] { color: red; } p { color: blue; }`,
			expectedRules: 1,
			description:   "unsupported selectors skipped",
		},
		{
			name:          "sibling combinators",
			css:           `h1 + p { color: red; } h1 ~ p { color: red; } h1 > p { color: blue; }`,
			expectedRules: 1,
			description:   "only the child combinator survives",
		},
		{
			name:          "invalid selector in a list",
			css:           `h1, a:hover, h2 { color: red; }`,
			expectedRules: 2,
			description:   "h1 and h2 kept",
		},
		{
			name:          "dangling combinator",
			css:           `div > { color: red; } > p { color: red; } em { color: blue; }`,
			expectedRules: 1,
			description:   "only em kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := Parse(tt.css)
			if len(ss.Rules) != tt.expectedRules {
				t.Errorf("%s: got %d rules, want %d", tt.description, len(ss.Rules), tt.expectedRules)
			}
		})
	}
}

// TestErrorRecovery_AtRules verifies that at-rules are skipped along with
// their blocks.
func TestErrorRecovery_AtRules(t *testing.T) {
	tests := []struct {
		name          string
		css           string
		expectedRules int
	}{
		{
			name:          "unknown @three-dee rule",
			css:           `@three-dee { body { color: red; } } p { color: blue; }`,
			expectedRules: 1,
		},
		{
			name:          "@import statement",
			css:           `@import url("foo.css"); p { color: blue; }`,
			expectedRules: 1,
		},
		{
			name:          "multiple unknown at-rules",
			css:           `@foo { x: y; } @bar { a: b; } div { color: red; }`,
			expectedRules: 1,
		},
		{
			name:          "media rule is skipped",
			css:           `@media screen { p { color: red; } }`,
			expectedRules: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := Parse(tt.css)
			if len(ss.Rules) != tt.expectedRules {
				t.Errorf("got %d rules, want %d", len(ss.Rules), tt.expectedRules)
			}
		})
	}
}

// TestErrorRecovery_InvalidDeclarations verifies that invalid declarations
// within a valid rule are skipped while valid declarations are preserved.
func TestErrorRecovery_InvalidDeclarations(t *testing.T) {
	tests := []struct {
		name           string
		css            string
		expectedProps  []string
		forbiddenProps []string
	}{
		{
			name:           "declaration without colon is skipped",
			css:            `p { badstuff; color: red; }`,
			expectedProps:  []string{"color"},
			forbiddenProps: []string{"badstuff"},
		},
		{
			name:           "declaration with empty value is skipped",
			css:            `p { width: ; color: green; }`,
			expectedProps:  []string{"color"},
			forbiddenProps: []string{"width"},
		},
		{
			name:           "property starting with number is skipped",
			css:            `p { 123abc: red; color: blue; }`,
			expectedProps:  []string{"color"},
			forbiddenProps: []string{"123abc"},
		},
		{
			name:           "unknown property is skipped",
			css:            `p { -webkit-thing: value; color: red; }`,
			expectedProps:  []string{"color"},
			forbiddenProps: []string{"-webkit-thing"},
		},
		{
			name:           "invalid value for a known property is skipped",
			css:            `p { color: notacolor; width: -5px; display: flexible; font-size: 12px; }`,
			expectedProps:  []string{"font-size"},
			forbiddenProps: []string{"color", "width", "display"},
		},
		{
			name:           "important flag is ignored",
			css:            `p { color: red !important; }`,
			expectedProps:  []string{"color"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := Parse(tt.css)
			if len(ss.Rules) != 1 {
				t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
			}
			decls := declarationMap(ss.Rules[0].Declarations)
			for _, prop := range tt.expectedProps {
				if _, ok := decls[prop]; !ok {
					t.Errorf("expected property %q to exist, but it does not. Declarations: %v", prop, decls)
				}
			}
			for _, prop := range tt.forbiddenProps {
				if _, ok := decls[prop]; ok {
					t.Errorf("property %q should not exist, but it does", prop)
				}
			}
		})
	}
}

func TestErrorRecovery_ImportantStripped(t *testing.T) {
	ss := Parse(`p { color: red !important; }`)
	if got := ss.Rules[0].Declarations[0].Value; got != "red" {
		t.Errorf("expected value 'red', got %q", got)
	}
}

// TestErrorRecovery_UnclosedBlocks verifies that an unterminated block runs
// to the end of the sheet and stray closing braces are ignored.
func TestErrorRecovery_UnclosedBlocks(t *testing.T) {
	tests := []struct {
		name          string
		css           string
		expectedRules int
	}{
		{
			name:          "unclosed block at end",
			css:           `p { color: red; } h1 { font-size: 20px`,
			expectedRules: 2,
		},
		{
			name:          "all blocks properly closed",
			css:           `p { color: red; } h1 { font-size: 20px; }`,
			expectedRules: 2,
		},
		{
			name:          "extra closing brace recovers",
			css:           `} p { color: red; } } }`,
			expectedRules: 1,
		},
		{
			name:          "selector without block",
			css:           `p { color: red; } h1`,
			expectedRules: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := Parse(tt.css)
			if len(ss.Rules) != tt.expectedRules {
				t.Errorf("got %d rules, want %d", len(ss.Rules), tt.expectedRules)
			}
		})
	}
}

// TestErrorRecovery_UnclosedStrings verifies that an unclosed string ends at
// its line and costs only the declaration it appears in.
func TestErrorRecovery_UnclosedStrings(t *testing.T) {
	inputs := []string{
		`p { font-family: "unclosed; } h1 { color: red; }`,
		`p { font-family: 'unclosed; } h1 { color: red; }`,
		`p[attr="unclosed { color: red; }`,
	}
	for _, css := range inputs {
		if ss := Parse(css); ss == nil {
			t.Errorf("%q: expected a stylesheet", css)
		}
	}

	ss := Parse("p { font-family: \"Times\n; color: blue }\nh1 { color: red }\nh2 { color: 'green\n}\nh3 { color: green }")
	var got []string
	for _, r := range ss.Rules {
		for _, d := range r.Declarations {
			got = append(got, r.Selector.Parts[0].Element+" "+d.Property+":"+d.Value)
		}
	}
	want := []string{"p color:blue", "h1 color:red", "h3 color:green"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("declaration %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// TestErrorRecovery_Acid2Patterns tests specific patterns from the Acid2 test
// that must be silently ignored.
func TestErrorRecovery_Acid2Patterns(t *testing.T) {
	acid2CSS := `
		/* Valid rule */
		.eyes { background: yellow; }

		/* Unknown at-rule, must be skipped */
		@three-dee {
			@background-lighting {
				azimuth: 30deg;
				elevation: 190deg;
			}
			h1 { color: red; }
		}

		/* Invalid selector with unbalanced bracket */
		[} { color: red; }

		/* Valid rule after garbage */
		.nose { width: 0; }

		/* Rule with semicolon-only selector */
		{; color: red; }

		/* Another valid rule */
		.mouth { border: 1px solid black; }
	`

	ss := Parse(acid2CSS)
	if len(ss.Rules) != 3 {
		t.Errorf("expected 3 rules, got %d", len(ss.Rules))
		for i, r := range ss.Rules {
			t.Logf("  rule %d: selector=%q declarations=%v", i, r.Selector.Raw, r.Declarations)
		}
	}
}

func TestErrorRecovery_SkipsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Parse(`a:hover { color: red; } p { color: nope; } @media print { }`, WithLogger(zap.New(core)))

	for _, msg := range []string{"skipping rule with invalid selector", "skipping declaration", "skipping at-rule"} {
		if logs.FilterMessage(msg).Len() == 0 {
			t.Errorf("expected a %q log entry, got %v", msg, logs.All())
		}
	}
}

func declarationMap(decls []Declaration) map[string]string {
	m := make(map[string]string, len(decls))
	for _, d := range decls {
		m[d.Property] = d.Value
	}
	return m
}
