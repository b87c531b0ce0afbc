package bot

import (
	"fmt"

	"gopkg.in/tucnak/telebot.v2"

	"github.com/arzbazar/orderbook-bot/models"
)

// orderSummary formats one order for a listing message.
func orderSummary(o models.Order) string {
	return fmt.Sprintf(
		"🛒 *Order #%d*\n\n🔹 *Offering:* `%s %s`\n🔸 *Requesting:* `%s %s`",
		o.ID,
		models.FormatAmount(o.AmountOffered), o.AssetOffered,
		models.FormatAmount(o.AmountRequested), o.AssetRequested)
}

// assetMarkup builds the sell-flow asset keyboard; the payload is the bare
// asset name.
func assetMarkup(assets []models.Asset) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	for _, a := range assets {
		menu.InlineKeyboard = append(menu.InlineKeyboard, []telebot.InlineButton{
			{Text: string(a), Data: string(a)},
		})
	}
	return menu
}

// filterMarkup builds the /orders browse keyboard: one row per asset plus
// an "All Orders" row.
func filterMarkup() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	for _, a := range models.Assets() {
		menu.InlineKeyboard = append(menu.InlineKeyboard, []telebot.InlineButton{
			{Text: string(a), Data: "filter_" + string(a)},
		})
	}
	menu.InlineKeyboard = append(menu.InlineKeyboard, []telebot.InlineButton{
		{Text: "All Orders", Data: "filter_All"},
	})
	return menu
}

func buyMarkup(orderID int64) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Text: "I want this deal", Data: fmt.Sprintf("buy_%d", orderID)},
	}}}
}

func deleteMarkup(orderID int64) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Text: "❌ Delete this Order", Data: fmt.Sprintf("delete_%d", orderID)},
	}}}
}

func decisionMarkup(orderID, buyerID int64) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Text: "✅ Confirm", Data: fmt.Sprintf("confirm_%d_%d", orderID, buyerID)},
		{Text: "❌ Reject", Data: fmt.Sprintf("reject_%d_%d", orderID, buyerID)},
	}}}
}
