package core

import (
	"regexp"
	"strconv"
	"strings"
)

// transactionPattern anchors a whole line: a non-digit description, a run of
// digits and thousands separators, and an optional currency suffix.
var transactionPattern = regexp.MustCompile(`^([^\d]+?)([\d,]+)円?$`)

// Classify parses one message line into a typed transaction.
//
// Full-width digits are normalized first. A line that does not match the
// description+amount grammar, or whose amount does not parse as an integer,
// yields the Unknown/uncategorized sentinel with a nil amount. A line whose
// description matches no keyword keeps its parsed amount with the
// uncategorized sentinel; that combination is what arms the confirmation
// flow.
//
// Keyword lists are consulted income first, then expense, then financial
// asset; the first match fixes both tag and category.
func Classify(text string, categories CategorySet) ClassifiedTransaction {
	unknown := ClassifiedTransaction{Tag: TagUnknown, Category: CategoryUncategorized}

	m := transactionPattern.FindStringSubmatch(NormalizeDigits(text))
	if m == nil {
		return unknown
	}

	amount, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err != nil {
		return unknown
	}

	description := strings.TrimSpace(m[1])
	if kw, ok := MatchCategory(description, categories.Income); ok {
		return ClassifiedTransaction{Tag: TagIncome, Category: kw, Amount: &amount}
	}
	if kw, ok := MatchCategory(description, categories.Expense); ok {
		return ClassifiedTransaction{Tag: TagExpense, Category: kw, Amount: &amount}
	}
	if kw, ok := MatchCategory(description, categories.FinancialAsset); ok {
		return ClassifiedTransaction{Tag: TagFinancialAsset, Category: kw, Amount: &amount}
	}

	return ClassifiedTransaction{Tag: TagUnknown, Category: CategoryUncategorized, Amount: &amount}
}
