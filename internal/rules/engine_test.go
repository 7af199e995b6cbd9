package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vozbusca/internal/domain"
	"vozbusca/internal/intent"
	"vozbusca/internal/vocab"
)

func TestLoadAppliesBuiltinAndFileRules(t *testing.T) {
	t.Parallel()

	rulesPath := writeRules(t, `
# literal
san isidoro => San Isidro
# regex
s/\bcuartos?\b/habitaciones/g
`)

	corrections, err := Load(rulesPath, 30)
	if err != nil {
		t.Fatalf("failed to load corrections: %v", err)
	}

	output, err := corrections.Apply("depa de dos cuartos en San Isidoro cerca a mira flores")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "departamento de dos habitaciones en San Isidro cerca a Miraflores" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLoadMissingFileKeepsBuiltins(t *testing.T) {
	t.Parallel()

	corrections, err := Load(filepath.Join(t.TempDir(), "missing.rules"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corrections.Len() == 0 {
		t.Fatalf("expected builtin rules")
	}

	output, _ := corrections.Apply("mini depa en sur co")
	if output != "monoambiente en Surco" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestCorrectionsIterateUntilStable(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("a => b\nb => c\n", 5)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	output, _ := corrections.Apply("a")
	if output != "c" {
		t.Fatalf("expected c, got %q", output)
	}
}

func TestCorrectionsStopAtIterationLimit(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("s/x/xx/g", 3)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	output, _ := corrections.Apply("x")
	if output != "xxxxxxxx" {
		t.Fatalf("expected three doublings, got %q", output)
	}
}

func TestLiteralRulesMatchWholeWordsOnly(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("surko => Surco", 0)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	output, _ := corrections.Apply("casa en surko cerca a surkotown")
	if output != "casa en Surco cerca a surkotown" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLiteralRulesIgnoreAccentsAndSpacing(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("jesus maria => Jesús María", 0)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	for _, input := range []string{"casa en jesus maria", "casa en Jesús  María", "casa en JESÚS MARÍA"} {
		output, _ := corrections.Apply(input)
		if output != "casa en Jesús María" {
			t.Fatalf("%q: unexpected output %q", input, output)
		}
	}
}

func TestLiteralRuleReplacementIsNotExpanded(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("dolares => $1 USD", 0)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	output, _ := corrections.Apply("mil dolares")
	if output != "mil $1 USD" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLiteralRuleStartingWithS(t *testing.T) {
	t.Parallel()

	corrections, err := Parse("s. isidro => San Isidro\nsurko => Surco", 0)
	if err != nil {
		t.Fatalf("failed to parse rules: %v", err)
	}

	output, _ := corrections.Apply("oficina en s. isidro o surko")
	if output != "oficina en San Isidro o Surco" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestRegexRuleFirstMatchWithoutGlobalFlag(t *testing.T) {
	t.Parallel()

	rule, err := parseRegexRule(`s/(\d+) lucas/$1 soles/`)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	output, changed := rule.Apply("entre 2 lucas y 3 lucas")
	if !changed || output != "entre 2 soles y 3 lucas" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestRegexRuleEscapedDelimiter(t *testing.T) {
	t.Parallel()

	rule, err := parseRegexRule(`s/\s*\/\s*mes/ al mes/g`)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	output, _ := rule.Apply("1500 / mes")
	if output != "1500 al mes" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestParseRejectsInvalidRules(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unsupported format": "just words",
		"empty literal":      " => x",
		"bad flag":           "s/a/b/q",
		"bad regex":          "s/(/b/",
	}
	for name, text := range cases {
		if _, err := Parse(text, 0); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), "line 1") {
			t.Fatalf("%s: expected line number in %v", name, err)
		}
	}
}

func TestLoadReportsBadFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(writeRules(t, "ok => fine\nnot a rule\n"), 0); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestCorrectionsFeedIntentParser(t *testing.T) {
	t.Parallel()

	corrections, err := Load("", 0)
	if err != nil {
		t.Fatalf("failed to load corrections: %v", err)
	}
	parser, err := intent.New(vocab.Default(), intent.WithCorrector(corrections))
	if err != nil {
		t.Fatalf("failed to build parser: %v", err)
	}

	outcome := parser.Parse("mini depa en mira flores")
	if outcome.Query.PropertyType == nil || *outcome.Query.PropertyType != domain.PropertyTypeStudio {
		t.Fatalf("expected studio, got %+v", outcome.Query.PropertyType)
	}
	if outcome.Query.Location == nil || *outcome.Query.Location != "Miraflores" {
		t.Fatalf("expected Miraflores, got %+v", outcome.Query.Location)
	}
}

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "correcciones.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}
