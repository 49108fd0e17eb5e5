// Package categorize implements the rule-based categorization of staged
// transactions. Everything here is pure: the rule set is passed in
// explicitly and the matcher has no side effects, so the transform can
// recompute category assignments from scratch on every run.
package categorize

import "strings"

// PatternType selects which transaction field a rule is matched against.
type PatternType string

const (
	PatternDescription     PatternType = "description"
	PatternName            PatternType = "name"
	PatternTransactionType PatternType = "transaction_type"
)

// patternTypes is the fixed evaluation order. Order does not affect the
// outcome (the cross-type reduction is priority-driven), it only makes
// iteration deterministic.
var patternTypes = []PatternType{PatternDescription, PatternName, PatternTransactionType}

// Rule is one matching rule of the reference rule set.
type Rule struct {
	PatternType  PatternType
	PatternValue string
	CategoryKey  string
	Priority     int
}

// Status reports whether a transaction matched any rule.
type Status string

const (
	StatusMatched       Status = "Matched"
	StatusUncategorized Status = "Uncategorized"
)

// UncategorizedKey is the sentinel category every unmatched transaction
// falls back to. The seed guarantees it always exists in the dimension.
const UncategorizedKey = "CAT999"

// Input carries the transaction fields the matcher inspects.
// CounterpartyName may be empty; an empty field never matches a non-empty
// pattern.
type Input struct {
	Description      string
	CounterpartyName string
	TransactionType  string
}

// Assignment is the single categorization outcome for one transaction.
type Assignment struct {
	CategoryKey string
	Status      Status
}

// Assign picks exactly one category for the transaction. Per pattern type
// the matching rules are reduced to one candidate (highest priority, ties
// to the smallest category key), then the up-to-three candidates are
// reduced the same way. No match at all yields the Uncategorized sentinel.
// Assign is total: any well-formed input and any rule set, including an
// empty one, produce a result.
func Assign(in Input, rules []Rule) Assignment {
	var candidates []Rule
	for _, pt := range patternTypes {
		if best, ok := bestOfType(in, rules, pt); ok {
			candidates = append(candidates, best)
		}
	}
	winner, ok := reduce(candidates)
	if !ok {
		return Assignment{CategoryKey: UncategorizedKey, Status: StatusUncategorized}
	}
	return Assignment{CategoryKey: winner.CategoryKey, Status: StatusMatched}
}

// Matches reports whether a single rule applies to the transaction.
// Description and name patterns are case-insensitive substring matches;
// transaction_type patterns are case-insensitive equality.
func Matches(in Input, r Rule) bool {
	switch r.PatternType {
	case PatternDescription:
		return containsFold(in.Description, r.PatternValue)
	case PatternName:
		return containsFold(in.CounterpartyName, r.PatternValue)
	case PatternTransactionType:
		return strings.EqualFold(in.TransactionType, r.PatternValue)
	}
	return false
}

func bestOfType(in Input, rules []Rule, pt PatternType) (Rule, bool) {
	var matched []Rule
	for _, r := range rules {
		if r.PatternType == pt && Matches(in, r) {
			matched = append(matched, r)
		}
	}
	return reduce(matched)
}

// reduce picks the rule with the highest priority, breaking ties by the
// lexicographically smallest category key. The tie-break is arbitrary but
// deterministic: the result never depends on rule declaration order.
func reduce(rules []Rule) (Rule, bool) {
	if len(rules) == 0 {
		return Rule{}, false
	}
	best := rules[0]
	for _, r := range rules[1:] {
		if beats(r, best) {
			best = r
		}
	}
	return best, true
}

func beats(a, b Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.CategoryKey < b.CategoryKey
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
