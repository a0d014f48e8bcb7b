package core

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CategorySet holds the three ordered keyword lists, one per tag. List order
// defines match priority; the set is loaded once and treated as immutable
// for the process lifetime.
type CategorySet struct {
	Income         []string `json:"income"`
	Expense        []string `json:"expense"`
	FinancialAsset []string `json:"financial_asset"`
}

// DefaultCategorySet returns the built-in kakeibo category keywords.
func DefaultCategorySet() CategorySet {
	return CategorySet{
		Income: []string{
			"給料", "ボーナス", "副収入", "臨時収入",
		},
		Expense: []string{
			"食費", "外食", "日用品", "交通費", "家賃", "光熱費",
			"水道代", "通信費", "交際費", "医療費", "美容", "衣服",
			"趣味", "教育", "サブスク", "その他",
		},
		FinancialAsset: []string{
			"投資信託", "株式", "貯金", "積立", "NISA",
		},
	}
}

// LoadCategorySet reads a category set from a JSON file. Empty lists fall
// back to the built-in defaults so a partial file stays usable.
func LoadCategorySet(path string) (CategorySet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CategorySet{}, fmt.Errorf("read category file: %w", err)
	}
	var set CategorySet
	if err := json.Unmarshal(raw, &set); err != nil {
		return CategorySet{}, fmt.Errorf("parse category file %s: %w", path, err)
	}
	defaults := DefaultCategorySet()
	if len(set.Income) == 0 {
		set.Income = defaults.Income
	}
	if len(set.Expense) == 0 {
		set.Expense = defaults.Expense
	}
	if len(set.FinancialAsset) == 0 {
		set.FinancialAsset = defaults.FinancialAsset
	}
	return set, nil
}

// Validate rejects sets with blank or duplicate keywords across all lists.
func (s CategorySet) Validate() error {
	seen := make(map[string]struct{})
	for _, list := range [][]string{s.Income, s.Expense, s.FinancialAsset} {
		for _, kw := range list {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("blank category keyword")
			}
			if _, dup := seen[kw]; dup {
				return fmt.Errorf("duplicate category keyword %q", kw)
			}
			seen[kw] = struct{}{}
		}
	}
	return nil
}

// MatchCategory returns the first keyword in list order that occurs as a
// substring of text. List order is authoritative: an earlier keyword wins
// even when a later one matches earlier in the string.
func MatchCategory(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
