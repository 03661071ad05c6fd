package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternList is an ordered list of plain regular expressions, used for
// ignore patterns.
type PatternList struct {
	patterns []*regexp.Regexp
}

// CompilePatterns compiles every pattern or reports all failures.
func CompilePatterns(patterns []string) (*PatternList, error) {
	list := &PatternList{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	var problems []string
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, fmt.Sprintf("pattern %d is empty", i))
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			problems = append(problems, fmt.Sprintf("pattern %d (%q): %s", i, p, err))
			continue
		}
		list.patterns = append(list.patterns, re)
	}
	if len(problems) > 0 {
		return nil, ErrInvalidPattern.WithDetails(problems...)
	}
	return list, nil
}

// Match returns the first pattern matching path.
func (l *PatternList) Match(path string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, re := range l.patterns {
		if re.MatchString(path) {
			return re.String(), true
		}
	}
	return "", false
}
