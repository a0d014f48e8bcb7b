package core

import "testing"

func testCategories() CategorySet {
	return CategorySet{
		Income:         []string{"給料", "ボーナス"},
		Expense:        []string{"食費", "交通費", "家賃"},
		FinancialAsset: []string{"投資信託", "株式"},
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		tag      Tag
		category string
		amount   int64
		parsed   bool
	}{
		{"expense keyword", "食費500円", TagExpense, "食費", 500, true},
		{"expense with space", "今日の食費 1200円", TagExpense, "食費", 1200, true},
		{"income keyword", "給料300000円", TagIncome, "給料", 300000, true},
		{"asset keyword", "投資信託10000円", TagFinancialAsset, "投資信託", 10000, true},
		{"suffix optional", "家賃80000", TagExpense, "家賃", 80000, true},
		{"thousands separator", "食費1,200円", TagExpense, "食費", 1200, true},
		{"full-width digits", "給料３０００００円", TagIncome, "給料", 300000, true},
		{"no keyword keeps amount", "コーヒー 500円", TagUnknown, CategoryUncategorized, 500, true},
		{"no digits", "謎の支払いXXXX", TagUnknown, CategoryUncategorized, 0, false},
		{"digits only", "500円", TagUnknown, CategoryUncategorized, 0, false},
		{"empty", "", TagUnknown, CategoryUncategorized, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, testCategories())
			if got.Tag != tc.tag || got.Category != tc.category {
				t.Fatalf("got (%s, %s), want (%s, %s)", got.Tag, got.Category, tc.tag, tc.category)
			}
			if got.Valid() != tc.parsed {
				t.Fatalf("Valid() = %v, want %v", got.Valid(), tc.parsed)
			}
			if tc.parsed && *got.Amount != tc.amount {
				t.Fatalf("amount = %d, want %d", *got.Amount, tc.amount)
			}
		})
	}
}

func TestClassifyIncomeBeforeExpense(t *testing.T) {
	// Description contains both an income and an expense keyword; income is
	// checked first and must win.
	got := Classify("給料から食費5000円", testCategories())
	if got.Tag != TagIncome || got.Category != "給料" {
		t.Fatalf("got (%s, %s), want (収入, 給料)", got.Tag, got.Category)
	}
}

func TestClassifyUnrecognizedVersusUncategorized(t *testing.T) {
	// Format failure: no amount at all.
	bad := Classify("ただのメモ", testCategories())
	if bad.Valid() {
		t.Fatalf("expected invalid result for text without amount")
	}
	// Recognized amount, no keyword: amount present, category sentinel.
	pending := Classify("ガチャ300円", testCategories())
	if !pending.Valid() || pending.Category != CategoryUncategorized {
		t.Fatalf("got %+v, want uncategorized with amount", pending)
	}
}
