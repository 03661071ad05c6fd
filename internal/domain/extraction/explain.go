package extraction

// Attempt describes how one rule fared against a path.
type Attempt struct {
	Index      int    `json:"index"`
	Pattern    string `json:"pattern"`
	Matched    bool   `json:"matched"`
	Identifier string `json:"identifier,omitempty"`
	Selected   bool   `json:"selected"`
}

// Explain evaluates every rule against path. Exactly one attempt is
// Selected when Extract would succeed: the first that matched.
func (s *RuleSet) Explain(path string) []Attempt {
	if s == nil {
		return nil
	}
	attempts := make([]Attempt, len(s.rules))
	selected := false
	for i, r := range s.rules {
		id, ok := r.capture(path)
		attempts[i] = Attempt{Index: i, Pattern: r.Pattern, Matched: ok, Identifier: id}
		if ok && !selected {
			attempts[i].Selected = true
			selected = true
		}
	}
	return attempts
}
