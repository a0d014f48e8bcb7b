package services

import (
	"fmt"
	"strings"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

// Reply texts mirror the bot's original Japanese wording.
const (
	replyCancelled  = "キャンセルしました。保存していません。"
	replyFormatHint = "商品名と金額を送って！"
)

func replySaved(text string) string {
	return "保存しました: " + text
}

func replyConfirmPrompt(text string) string {
	return "カテゴリが未分類です。\n" +
		"この内容を保存してもよいですか？\n" +
		"「はい」または「いいえ」で教えてください。\n\n" +
		"内容: " + text
}

func replyMonthTotal(q core.PeriodQuery, total int64) string {
	return fmt.Sprintf("%d年%d月の「%s」は %d円 です。", q.Year, q.Month, q.Category, total)
}

func replyCategoryList(categories core.CategorySet) string {
	lines := []string{"📂 カテゴリ一覧", "", "🧾 支出カテゴリ:"}
	for _, c := range categories.Expense {
		lines = append(lines, "- "+c)
	}
	lines = append(lines, "", "💰 収入カテゴリ:")
	for _, c := range categories.Income {
		lines = append(lines, "- "+c)
	}
	lines = append(lines, "", "💹 金融資産カテゴリ:")
	for _, c := range categories.FinancialAsset {
		lines = append(lines, "- "+c)
	}
	return strings.Join(lines, "\n")
}

// withCancellationNotice prepends the cancellation line when a stale pending
// record was cleared by the current message.
func withCancellationNotice(cancelled bool, reply string) string {
	if !cancelled {
		return reply
	}
	return replyCancelled + "\n\n" + reply
}
