// Package extraction infers sample identifiers from file paths using an
// ordered list of project-defined regular expressions.
package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/metafirst/supervisor/internal/failure"
)

// IdentifierGroup is the conventional name of the identifier capture group.
const IdentifierGroup = "id"

var (
	// ErrInvalidRule indicates a rule rejected at registration.
	ErrInvalidRule = failure.New(failure.RuleDefinition, "invalid extraction rule")
	// ErrInvalidPattern indicates an ignore pattern that does not compile.
	ErrInvalidPattern = failure.New(failure.RuleDefinition, "invalid ignore pattern")
)

// Rule is a regular expression with one designated capture group. Group may
// name the group or give its 1-based index; when empty the group named "id"
// is used, or the only capture group of the pattern.
type Rule struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type compiledRule struct {
	Rule
	re    *regexp.Regexp
	group int
}

// RuleSet is an ordered, compiled list of rules. The zero value matches
// nothing.
type RuleSet struct {
	rules []compiledRule
}

// Compile validates every rule and returns them in declared order. Any
// invalid rule fails the whole set.
func Compile(rules []Rule) (*RuleSet, error) {
	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	var problems []string
	for i, rule := range rules {
		compiled, err := compileRule(rule)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rule %d (%q): %s", i, rule.Pattern, err))
			continue
		}
		set.rules = append(set.rules, compiled)
	}
	if len(problems) > 0 {
		return nil, ErrInvalidRule.WithDetails(problems...)
	}
	return set, nil
}

func compileRule(rule Rule) (compiledRule, error) {
	if strings.TrimSpace(rule.Pattern) == "" {
		return compiledRule{}, fmt.Errorf("pattern is empty")
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return compiledRule{}, err
	}
	group, err := designatedGroup(re, rule.Group)
	if err != nil {
		return compiledRule{}, err
	}
	return compiledRule{Rule: rule, re: re, group: group}, nil
}

func designatedGroup(re *regexp.Regexp, group string) (int, error) {
	names := re.SubexpNames()
	if group != "" {
		if idx, err := strconv.Atoi(group); err == nil {
			if idx < 1 || idx > re.NumSubexp() {
				return 0, fmt.Errorf("group %d is undefined; pattern has %d capture groups", idx, re.NumSubexp())
			}
			return idx, nil
		}
		return namedGroup(names, group)
	}

	if idx, err := namedGroup(names, IdentifierGroup); err == nil {
		return idx, nil
	}
	switch re.NumSubexp() {
	case 0:
		return 0, fmt.Errorf("pattern has no capture group")
	case 1:
		return 1, nil
	}
	return 0, fmt.Errorf("pattern has %d capture groups; name one %q or set group", re.NumSubexp(), IdentifierGroup)
}

func namedGroup(names []string, name string) (int, error) {
	found := 0
	for i, candidate := range names {
		if i == 0 || candidate != name {
			continue
		}
		if found != 0 {
			return 0, fmt.Errorf("group %q is ambiguous", name)
		}
		found = i
	}
	if found == 0 {
		return 0, fmt.Errorf("group %q is undefined", name)
	}
	return found, nil
}

// Rules returns the source rules in order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Rule
	}
	return out
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Extract returns the identifier captured by the first rule that matches
// path. A rule whose designated group captures nothing does not match.
func (s *RuleSet) Extract(path string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, r := range s.rules {
		if id, ok := r.capture(path); ok {
			return id, true
		}
	}
	return "", false
}

func (r compiledRule) capture(path string) (string, bool) {
	loc := r.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return "", false
	}
	start, end := loc[2*r.group], loc[2*r.group+1]
	if start < 0 || start == end {
		return "", false
	}
	return path[start:end], true
}
