package categorize

// Classification derives the reporting classification from a category type.
// Applied once per category row when the dimension is built, not per
// transaction. Unknown and any unrecognized type classify as an unknown
// expense so the mapping stays total.
func Classification(categoryType string) string {
	switch categoryType {
	case "Income":
		return "Income"
	case "Transfer":
		return "Transfer"
	case "Essential":
		return "Expense - Essential"
	case "Discretionary":
		return "Expense - Discretionary"
	default:
		return "Expense - Unknown"
	}
}
