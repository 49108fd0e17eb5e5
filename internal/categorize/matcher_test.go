package categorize

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignEmptyRuleSet(t *testing.T) {
	t.Parallel()

	got := Assign(Input{Description: "RANDOM SHOP", CounterpartyName: "", TransactionType: "debit"}, nil)
	require.Equal(t, Assignment{CategoryKey: "CAT999", Status: StatusUncategorized}, got)

	got = Assign(Input{Description: "ANYTHING", CounterpartyName: "ANYONE", TransactionType: "credit"}, []Rule{})
	require.Equal(t, Assignment{CategoryKey: "CAT999", Status: StatusUncategorized}, got)
}

func TestAssignSingleRule(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{PatternType: PatternDescription, PatternValue: "amazon", CategoryKey: "CAT011", Priority: 5},
	}
	got := Assign(Input{Description: "AMAZON.COM PAYMENT", TransactionType: "debit"}, rules)
	require.Equal(t, Assignment{CategoryKey: "CAT011", Status: StatusMatched}, got)

	// Non-matching description falls through to the sentinel.
	got = Assign(Input{Description: "GROCERY STORE", TransactionType: "debit"}, rules)
	require.Equal(t, Assignment{CategoryKey: "CAT999", Status: StatusUncategorized}, got)
}

func TestAssignPriorityBeatsDeclarationOrder(t *testing.T) {
	t.Parallel()

	in := Input{Description: "SALARY TRANSFER", TransactionType: "credit"}
	rules := []Rule{
		{PatternType: PatternTransactionType, PatternValue: "credit", CategoryKey: "CAT016", Priority: 3},
		{PatternType: PatternDescription, PatternValue: "transfer", CategoryKey: "CAT021", Priority: 8},
	}
	got := Assign(in, rules)
	require.Equal(t, Assignment{CategoryKey: "CAT021", Status: StatusMatched}, got)

	// Same rules, reversed declaration order: same winner.
	got = Assign(in, []Rule{rules[1], rules[0]})
	require.Equal(t, Assignment{CategoryKey: "CAT021", Status: StatusMatched}, got)
}

func TestAssignCrossTypePrecedenceIsPriorityDriven(t *testing.T) {
	t.Parallel()

	in := Input{Description: "CARD 1234 COFFEE", CounterpartyName: "Joe's Beans", TransactionType: "debit"}
	rules := []Rule{
		{PatternType: PatternDescription, PatternValue: "coffee", CategoryKey: "CAT012", Priority: 10},
		{PatternType: PatternName, PatternValue: "beans", CategoryKey: "CAT010", Priority: 20},
	}
	got := Assign(in, rules)
	require.Equal(t, "CAT010", got.CategoryKey, "name rule with higher priority must win over description rule")
}

func TestAssignTieBreakBySmallestCategoryKey(t *testing.T) {
	t.Parallel()

	in := Input{Description: "DUAL MATCH", TransactionType: "debit"}
	rules := []Rule{
		{PatternType: PatternDescription, PatternValue: "dual", CategoryKey: "CAT020", Priority: 7},
		{PatternType: PatternDescription, PatternValue: "match", CategoryKey: "CAT011", Priority: 7},
	}
	got := Assign(in, rules)
	require.Equal(t, Assignment{CategoryKey: "CAT011", Status: StatusMatched}, got)

	// Stable under reordering.
	got = Assign(in, []Rule{rules[1], rules[0]})
	require.Equal(t, "CAT011", got.CategoryKey)
}

func TestAssignCaseInsensitive(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{PatternType: PatternDescription, PatternValue: "amazon", CategoryKey: "CAT011", Priority: 5},
		{PatternType: PatternName, PatternValue: "NETFLIX", CategoryKey: "CAT017", Priority: 2},
		{PatternType: PatternTransactionType, PatternValue: "CREDIT", CategoryKey: "CAT002", Priority: 1},
	}
	got := Assign(Input{Description: "AMAZON MARKETPLACE", TransactionType: "debit"}, rules)
	require.Equal(t, "CAT011", got.CategoryKey)

	got = Assign(Input{Description: "dd payment", CounterpartyName: "netflix international", TransactionType: "debit"}, rules)
	require.Equal(t, "CAT017", got.CategoryKey)

	got = Assign(Input{Description: "interest", TransactionType: "credit"}, rules)
	require.Equal(t, "CAT002", got.CategoryKey)
}

func TestAssignEmptyFieldsNeverWildcard(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{PatternType: PatternName, PatternValue: "nordea", CategoryKey: "CAT020", Priority: 10},
	}
	got := Assign(Input{Description: "SOMETHING", CounterpartyName: "", TransactionType: "debit"}, rules)
	require.Equal(t, StatusUncategorized, got.Status, "empty counterparty must not match a non-empty pattern")

	// An empty pattern is a substring of everything, the empty field included.
	empty := []Rule{{PatternType: PatternName, PatternValue: "", CategoryKey: "CAT002", Priority: 1}}
	got = Assign(Input{Description: "X", CounterpartyName: "", TransactionType: "debit"}, empty)
	require.Equal(t, Assignment{CategoryKey: "CAT002", Status: StatusMatched}, got)
}

// flatAssign is the behaviorally equivalent single-stage reference
// reduction: one pass over the union of all matching rules.
func flatAssign(in Input, rules []Rule) Assignment {
	var matched []Rule
	for _, r := range rules {
		if Matches(in, r) {
			matched = append(matched, r)
		}
	}
	winner, ok := reduce(matched)
	if !ok {
		return Assignment{CategoryKey: UncategorizedKey, Status: StatusUncategorized}
	}
	return Assignment{CategoryKey: winner.CategoryKey, Status: StatusMatched}
}

func TestAssignEquivalentToFlatReduction(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	descriptions := []string{"AMAZON.COM PAYMENT", "SALARY TRANSFER", "FØTEX COPENHAGEN", "RANDOM SHOP", ""}
	names := []string{"", "Nordea", "Fitness World", "AMAZON EU"}
	types := []string{"credit", "debit"}
	patternValues := []string{"amazon", "transfer", "føtex", "nordea", "fitness", "credit", "debit", ""}
	cats := []string{"CAT001", "CAT010", "CAT011", "CAT016", "CAT020", "CAT021"}
	ptypes := []PatternType{PatternDescription, PatternName, PatternTransactionType}

	for trial := 0; trial < 500; trial++ {
		var rules []Rule
		for i := 0; i < rng.Intn(12); i++ {
			rules = append(rules, Rule{
				PatternType:  ptypes[rng.Intn(len(ptypes))],
				PatternValue: patternValues[rng.Intn(len(patternValues))],
				CategoryKey:  cats[rng.Intn(len(cats))],
				Priority:     rng.Intn(5),
			})
		}
		in := Input{
			Description:      descriptions[rng.Intn(len(descriptions))],
			CounterpartyName: names[rng.Intn(len(names))],
			TransactionType:  types[rng.Intn(len(types))],
		}
		require.Equal(t, flatAssign(in, rules), Assign(in, rules),
			"two-stage and flat reductions diverged for input %+v rules %+v", in, rules)
	}
}

func TestClassification(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Income":        "Income",
		"Transfer":      "Transfer",
		"Essential":     "Expense - Essential",
		"Discretionary": "Expense - Discretionary",
		"Unknown":       "Expense - Unknown",
		"":              "Expense - Unknown",
		"garbage":       "Expense - Unknown",
	}
	for in, want := range cases {
		require.Equal(t, want, Classification(in), "category type %q", in)
	}
}
