// Package validator checks generated strategy code against the target
// runtime dialect: structural requirements, restricted-platform rules, and
// a heuristic maintainability estimate.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tradeforge/stratgen/internal/model"
)

// Required structural members of a strategy candidate.
const (
	initializeFunc = "initialize"
	signalsFunc    = "generate_signals"
)

var (
	defHeaderRe  = regexp.MustCompile(`^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	initializeRe = regexp.MustCompile(`(?m)^\s*def\s+initialize\s*\(`)
	signalsRe    = regexp.MustCompile(`(?m)^\s*def\s+generate_signals\s*\(`)
	importRe     = regexp.MustCompile(`^\s*(?:import|from)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	branchRe     = regexp.MustCompile(`(?m)^\s*(?:if|elif|for|while|except)\b`)
)

// deniedImports are modules the restricted trading-platform dialect forbids.
var deniedImports = map[string]bool{
	"os":         true,
	"sys":        true,
	"subprocess": true,
	"socket":     true,
	"requests":   true,
	"urllib":     true,
	"shutil":     true,
	"ctypes":     true,
}

// deniedCalls are operations the restricted dialect forbids.
var deniedCalls = []string{"eval(", "exec(", "open(", "__import__("}

// nearMissPatterns are constructs that usually indicate trouble on the
// platform but are not outright forbidden. Scanned in order so warnings
// come out the same way on every run.
var nearMissPatterns = []struct {
	pattern string
	why     string
}{
	{"while True", "unbounded loop may exceed the platform's execution budget"},
	{"time.sleep", "blocking sleep stalls the strategy event loop"},
	{"globals()", "global state access is discouraged in strategy code"},
	{"input(", "interactive input is unavailable at runtime"},
}

// Validator checks generated candidates. Safe for concurrent use.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs the check pipeline over code. Checks run in order and stop
// at the first blocking error, keeping every warning accumulated before the
// blocker. The maintainability estimate is always computed for diagnostics.
func (v *Validator) Validate(code string, dialectRequired bool) *model.ValidationResult {
	res := &model.ValidationResult{
		SyntaxChecks: make(map[string]bool),
		Performance:  make(map[string]float64),
	}

	blocked := v.checkSyntax(code, res)
	if !blocked {
		blocked = v.checkStructure(code, res)
	}
	if !blocked {
		v.checkDialect(code, dialectRequired, res)
	}

	v.scoreComplexity(code, res)
	v.suggest(code, res)

	switch {
	case len(res.Errors) > 0:
		res.Status = model.StatusInvalid
	case len(res.Warnings) > 0:
		res.Status = model.StatusWarning
	default:
		res.Status = model.StatusValid
	}
	res.Valid = res.Status != model.StatusInvalid
	return res
}

// checkSyntax verifies well-formedness: non-empty code, balanced brackets,
// terminated strings, and def headers ending in a colon. Returns true when a
// blocking error was found.
func (v *Validator) checkSyntax(code string, res *model.ValidationResult) bool {
	if strings.TrimSpace(code) == "" {
		res.Errors = append(res.Errors, "code is empty")
		res.SyntaxChecks["balanced_delimiters"] = false
		res.SyntaxChecks["terminated_strings"] = false
		res.SyntaxChecks["def_headers"] = false
		return true
	}

	stripped := stripTripleQuoted(code)

	balanced := true
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	for _, line := range strings.Split(stripped, "\n") {
		line = stripComment(line)
		inStr := byte(0)
		for i := 0; i < len(line); i++ {
			c := line[i]
			if inStr != 0 {
				if c == inStr && (i == 0 || line[i-1] != '\\') {
					inStr = 0
				}
				continue
			}
			switch c {
			case '\'', '"':
				inStr = c
			case '(', '[', '{':
				stack = append(stack, c)
			case ')', ']', '}':
				if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
					balanced = false
				} else {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}
	if len(stack) > 0 {
		balanced = false
	}
	res.SyntaxChecks["balanced_delimiters"] = balanced
	if !balanced {
		res.Errors = append(res.Errors, "unbalanced brackets or parentheses")
		return true
	}

	terminated := true
	for n, line := range strings.Split(stripped, "\n") {
		line = stripComment(line)
		if unterminatedString(line) {
			terminated = false
			res.Errors = append(res.Errors, fmt.Sprintf("unterminated string on line %d", n+1))
			break
		}
	}
	res.SyntaxChecks["terminated_strings"] = terminated
	if !terminated {
		return true
	}

	headersOK := true
	for n, line := range strings.Split(stripped, "\n") {
		trimmed := stripComment(line)
		if !defHeaderRe.MatchString(trimmed) {
			continue
		}
		if !strings.HasSuffix(strings.TrimRight(trimmed, " \t"), ":") {
			headersOK = false
			res.Errors = append(res.Errors, fmt.Sprintf("malformed function header on line %d", n+1))
			break
		}
	}
	res.SyntaxChecks["def_headers"] = headersOK
	return !headersOK
}

// checkStructure requires the designated entry points. Missing either one is
// a blocking error: the platform cannot run the strategy without them.
func (v *Validator) checkStructure(code string, res *model.ValidationResult) bool {
	hasInit := initializeRe.MatchString(code)
	hasSignals := signalsRe.MatchString(code)
	res.SyntaxChecks["has_initialize"] = hasInit
	res.SyntaxChecks["has_generate_signals"] = hasSignals

	if !hasInit {
		res.Errors = append(res.Errors, fmt.Sprintf("missing required function %q", initializeFunc))
	}
	if !hasSignals {
		res.Errors = append(res.Errors, fmt.Sprintf("missing required function %q", signalsFunc))
	}
	return !hasInit || !hasSignals
}

// checkDialect scans for restricted-platform violations. Denylisted
// constructs block only when dialect compliance was requested; otherwise
// they are flagged as warnings so the caller still sees them.
func (v *Validator) checkDialect(code string, dialectRequired bool, res *model.ValidationResult) {
	clean := true
	report := func(msg string) {
		clean = false
		if dialectRequired {
			res.Errors = append(res.Errors, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}

	for _, line := range strings.Split(code, "\n") {
		m := importRe.FindStringSubmatch(stripComment(line))
		if m != nil && deniedImports[m[1]] {
			report(fmt.Sprintf("denylisted import %q is not allowed on the trading platform", m[1]))
		}
	}
	for _, call := range deniedCalls {
		if strings.Contains(code, call) {
			report(fmt.Sprintf("denylisted operation %q is not allowed on the trading platform", strings.TrimSuffix(call, "(")))
		}
	}

	for _, nm := range nearMissPatterns {
		if strings.Contains(code, nm.pattern) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", nm.pattern, nm.why))
		}
	}

	res.SyntaxChecks["dialect_clean"] = clean
}

// scoreComplexity computes a bounded branching proxy and maps it into a
// 0-100 maintainability estimate. Runs regardless of earlier errors.
func (v *Validator) scoreComplexity(code string, res *model.ValidationResult) {
	lines := strings.Split(code, "\n")
	branches := len(branchRe.FindAllString(code, -1))

	maxDepth := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if d := indent / 4; d > maxDepth {
			maxDepth = d
		}
	}

	maintainability := 100.0 - 4.0*float64(branches) - 5.0*float64(maxDepth)
	if maintainability < 0 {
		maintainability = 0
	}

	res.Performance["line_count"] = float64(len(lines))
	res.Performance["branch_count"] = float64(branches)
	res.Performance["max_nesting"] = float64(maxDepth)
	res.Performance["maintainability"] = maintainability
}

func (v *Validator) suggest(code string, res *model.ValidationResult) {
	lower := strings.ToLower(code)
	if !strings.Contains(lower, "stop_loss") && !strings.Contains(lower, "stop loss") {
		res.Suggestions = append(res.Suggestions, "add a stop-loss parameter to bound downside risk")
	}
	if res.Performance["maintainability"] < 40 {
		res.Suggestions = append(res.Suggestions, "reduce branching or extract helper functions")
	}
}

// stripTripleQuoted blanks out triple-quoted blocks so docstrings do not
// confuse the line-oriented checks.
func stripTripleQuoted(code string) string {
	for _, q := range []string{`"""`, "'''"} {
		for {
			start := strings.Index(code, q)
			if start < 0 {
				break
			}
			end := strings.Index(code[start+3:], q)
			if end < 0 {
				// Unterminated docstring: leave it for the string check.
				break
			}
			block := code[start : start+3+end+3]
			code = strings.Replace(code, block, strings.Repeat("\n", strings.Count(block, "\n")), 1)
		}
	}
	return code
}

// stripComment removes a trailing # comment, respecting string literals.
func stripComment(line string) string {
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == inStr && (i == 0 || line[i-1] != '\\') {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case '#':
			return line[:i]
		}
	}
	return line
}

// unterminatedString reports whether a comment-stripped line leaves a
// single-quoted or double-quoted string open.
func unterminatedString(line string) bool {
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == inStr && (i == 0 || line[i-1] != '\\') {
				inStr = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inStr = c
		}
	}
	return inStr != 0
}
