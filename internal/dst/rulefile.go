package dst

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"simtime/internal/epoch"
)

// RuleFile is a parsed rule source. Entries and Locales appear in file order.
type RuleFile struct {
	Entries []Entry
	Locales []Locale
}

// Entry is one rule line together with the year scope it appeared in.
type Entry struct {
	Line int
	// Year is the first year the entry applies to.
	Year int
	Spec Spec
	// Start and End are nil for zones without DST.
	Start, End *Rule
}

// HasDST reports whether the entry carries transition rules.
func (e Entry) HasDST() bool { return e.Start != nil && e.End != nil }

// Southern reports whether the DST interval spans a year boundary.
func (e Entry) Southern() bool { return e.HasDST() && e.Start.Month > e.End.Month }

// Locale maps a free-text region name to a rule name.
type Locale struct {
	Alias string
	Name  string
}

// parseError is an error that occurred during parsing.
// It contains the line number and the line where the error occurred.
type parseError struct {
	lineNumber int
	line       string
	err        error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.lineNumber, e.line, e.err)
}

func (e *parseError) Unwrap() error { return e.err }

// ParseRules reads a rule source:
//
//	; comment
//	[2007]
//	EST+5EDT,M3.2.0/02:00,M11.1.0/02:00
//	    US/Eastern
//	GMT0
//
// A "[YYYY]" line scopes the following rule lines to years >= YYYY. An
// indented line names a locale that resolves to the preceding rule.
func ParseRules(r io.Reader) (*RuleFile, error) {
	var (
		f          RuleFile
		year       = epoch.FirstYear
		lineNumber int
		lastName   string
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := stripComment(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}

		if unicode.IsSpace(rune(line[0])) {
			if lastName == "" {
				return nil, &parseError{lineNumber, raw, fmt.Errorf("locale without a preceding rule")}
			}
			f.Locales = append(f.Locales, Locale{Alias: strings.TrimSpace(line), Name: lastName})
			continue
		}

		if scope, ok := strings.CutPrefix(line, "["); ok {
			y, err := parseYearScope(scope)
			if err != nil {
				return nil, &parseError{lineNumber, raw, err}
			}
			year = y
			continue
		}

		e, err := parseEntry(line)
		if err != nil {
			return nil, &parseError{lineNumber, raw, err}
		}
		e.Line, e.Year = lineNumber, year
		f.Entries = append(f.Entries, e)
		lastName = e.Spec.Name
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return &f, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRightFunc(line, unicode.IsSpace)
}

func parseYearScope(s string) (int, error) {
	body, ok := strings.CutSuffix(strings.TrimSpace(s), "]")
	if !ok {
		return 0, fmt.Errorf("unterminated year scope")
	}
	y, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("year scope: %w", err)
	}
	if y < epoch.FirstYear || y > epoch.LastYear {
		return 0, fmt.Errorf("year scope %d outside %d..%d", y, epoch.FirstYear, epoch.LastYear)
	}
	return y, nil
}

func parseEntry(line string) (Entry, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	spec, err := ParseSpec(fields[0])
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Spec: spec}
	switch len(fields) {
	case 1:
		return e, nil
	case 3:
		start, err := ParseRule(fields[1])
		if err != nil {
			return Entry{}, fmt.Errorf("start: %w", err)
		}
		end, err := ParseRule(fields[2])
		if err != nil {
			return Entry{}, fmt.Errorf("end: %w", err)
		}
		e.Start, e.End = &start, &end
		return e, nil
	}
	return Entry{}, fmt.Errorf("not a valid timezone spec: want Name or Name,start,end")
}

// Locale returns the rule name of the first locale whose alias starts with
// target, ignoring case and surrounding whitespace.
func (f *RuleFile) Locale(target string) (string, bool) {
	target = strings.ToLower(strings.TrimSpace(target))
	if f == nil || target == "" {
		return "", false
	}
	for _, l := range f.Locales {
		if strings.HasPrefix(strings.ToLower(l.Alias), target) {
			return l.Name, true
		}
	}
	return "", false
}

//go:embed tzinfo.txt
var defaultRulesText string

var (
	defaultRulesOnce sync.Once
	defaultRules     *RuleFile
	defaultRulesErr  error
)

// DefaultRules returns the built-in rule source, parsed once.
func DefaultRules() (*RuleFile, error) {
	defaultRulesOnce.Do(func() {
		defaultRules, defaultRulesErr = ParseRules(strings.NewReader(defaultRulesText))
	})
	return defaultRules, defaultRulesErr
}
