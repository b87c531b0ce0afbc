package bot

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/tucnak/telebot.v2"

	"github.com/arzbazar/orderbook-bot/config"
	"github.com/arzbazar/orderbook-bot/flow"
	"github.com/arzbazar/orderbook-bot/market"
	"github.com/arzbazar/orderbook-bot/models"
)

// Bot bridges Telegram updates into the sell conversation and the order
// lifecycle. It owns no business rules: commands and decoded callback
// actions are handed to flow and market, and their results are rendered
// back as messages.
type Bot struct {
	teleBot *telebot.Bot
	flow    *flow.Manager
	market  *market.Manager
	logger  *zap.Logger
}

// NewBot creates a new Bot instance over a long-polling connection
func NewBot(cfg *config.Config, flowMgr *flow.Manager, marketMgr *market.Manager, logger *zap.Logger) (*Bot, error) {
	tb, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bot")
	}

	return &Bot{
		teleBot: tb,
		flow:    flowMgr,
		market:  marketMgr,
		logger:  logger,
	}, nil
}

// Start registers the command menu and all handlers, then polls for updates.
func (b *Bot) Start() {
	if err := b.teleBot.SetCommands([]telebot.Command{
		{Text: "start", Description: "Restart the bot"},
		{Text: "sell", Description: "Create a new order"},
		{Text: "orders", Description: "View all active orders"},
		{Text: "myorders", Description: "Manage your active orders"},
		{Text: "cancel", Description: "Cancel the current operation"},
	}); err != nil {
		b.logger.Warn("failed to register command menu", zap.Error(err))
	}

	b.teleBot.Handle("/start", func(m *telebot.Message) {
		b.send(m.Sender,
			"Welcome to the Order Book Bot!\n\n"+
				"Use /sell to create a new order.\n"+
				"Use /orders to view all active orders.\n"+
				"Use /myorders to manage your own orders.")
	})

	b.teleBot.Handle("/sell", func(m *telebot.Message) {
		b.renderPrompt(m.Sender, nil, b.flow.Begin(m.Sender.ID))
	})

	b.teleBot.Handle("/cancel", func(m *telebot.Message) {
		b.renderPrompt(m.Sender, nil, b.flow.Cancel(m.Sender.ID))
	})

	b.teleBot.Handle("/orders", func(m *telebot.Message) {
		b.send(m.Sender, "Please choose which asset you want to see offers for:", filterMarkup())
	})

	b.teleBot.Handle("/myorders", func(m *telebot.Message) {
		b.showMyOrders(m)
	})

	// Free text is only meaningful inside an active sell conversation.
	b.teleBot.Handle(telebot.OnText, func(m *telebot.Message) {
		if !b.flow.Active(m.Sender.ID) {
			b.send(m.Sender, "Use /sell to create a new order or /orders to browse the market.")
			return
		}
		user := models.User{ID: m.Sender.ID, Username: m.Sender.Username}
		prompt, err := b.flow.EnterAmount(user, m.Text)
		if err != nil && !errors.Is(err, models.ErrInvalidAmount) && !errors.Is(err, models.ErrInvalidAsset) {
			b.logger.Error("sell conversation failed",
				zap.Int64("user_id", m.Sender.ID), zap.Error(err))
		}
		b.renderPrompt(m.Sender, nil, prompt)
	})

	b.teleBot.Handle(telebot.OnCallback, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})

		act, err := parseAction(c.Data)
		if err != nil {
			b.logger.Warn("undecodable callback payload", zap.Error(err))
			return
		}

		switch act.Kind {
		case actionAsset:
			b.handleAssetSelection(c, act.Asset)
		case actionFilter:
			b.showFilteredOrders(c, act.Asset)
		case actionBuy:
			b.handleBuy(c, act.OrderID)
		case actionConfirm:
			b.handleConfirm(c, act)
		case actionReject:
			b.handleReject(c, act)
		case actionDelete:
			b.handleDelete(c, act.OrderID)
		}
	})

	b.logger.Info("bot started, polling for updates")
	b.teleBot.Start()
}

// Stop shuts the poller down.
func (b *Bot) Stop() {
	b.teleBot.Stop()
}

// handleAssetSelection feeds a sell-flow asset button into the conversation.
func (b *Bot) handleAssetSelection(c *telebot.Callback, asset string) {
	prompt, err := b.flow.SelectAsset(c.Sender.ID, asset)
	if errors.Is(err, models.ErrNoSession) {
		// Button on an old message after the flow already ended.
		b.edit(c.Message, "This conversation has ended. Start a new order with /sell.")
		return
	}
	b.renderPrompt(c.Sender, c.Message, prompt)
}

// showFilteredOrders lists active orders for one offered asset ("All" lists
// everything), each with a buy button.
func (b *Bot) showFilteredOrders(c *telebot.Callback, assetFilter string) {
	var filter *models.Asset
	title := "--- All Active Orders ---"
	if assetFilter != "All" {
		a := models.Asset(assetFilter)
		filter = &a
		title = fmt.Sprintf("--- Orders Offering %s ---", assetFilter)
	}

	orders, err := b.market.List(filter, c.Sender.ID)
	if err != nil {
		b.logger.Error("failed to list orders", zap.Error(err))
		b.edit(c.Message, "An error occurred. Please try again later.")
		return
	}
	if len(orders) == 0 {
		b.edit(c.Message, fmt.Sprintf("There are currently no orders offering %s.", assetFilter))
		return
	}

	b.edit(c.Message, title)
	for _, o := range orders {
		b.send(c.Sender, orderSummary(o), buyMarkup(o.ID), telebot.ModeMarkdown)
	}
}

// showMyOrders lists the sender's own active orders with delete buttons.
func (b *Bot) showMyOrders(m *telebot.Message) {
	orders, err := b.market.MyOrders(m.Sender.ID)
	if err != nil {
		b.logger.Error("failed to list own orders", zap.Error(err))
		b.send(m.Sender, "An error occurred. Please try again later.")
		return
	}
	if len(orders) == 0 {
		b.send(m.Sender, "You don't have any active orders.")
		return
	}

	b.send(m.Sender, "--- Your Active Orders ---")
	for _, o := range orders {
		b.send(m.Sender, orderSummary(o), deleteMarkup(o.ID), telebot.ModeMarkdown)
	}
}

// handleBuy claims an order for the clicking buyer and asks the seller to
// confirm or reject the deal.
func (b *Bot) handleBuy(c *telebot.Callback, orderID int64) {
	buyer := models.User{ID: c.Sender.ID, Username: "@" + c.Sender.Username}

	order, err := b.market.Buy(orderID, buyer)
	if errors.Is(err, models.ErrOrderUnavailable) {
		b.edit(c.Message, "❌ This order is no longer available.")
		return
	}
	if err != nil {
		b.logger.Error("buy failed", zap.Int64("order_id", orderID), zap.Error(err))
		b.edit(c.Message, "An error occurred. Please try again later.")
		return
	}

	b.edit(c.Message, "✅ Your purchase request has been sent! Please wait for the seller to respond.")

	sellerText := fmt.Sprintf(
		"🔔 Buyer found!\n\n🔸 Order #%d: Offer %s %s for %s %s\n👤 Buyer: %s\n\nConfirm deal?",
		order.ID,
		models.FormatAmount(order.AmountOffered), order.AssetOffered,
		models.FormatAmount(order.AmountRequested), order.AssetRequested,
		buyer.Username)
	b.send(&telebot.User{ID: order.SellerID}, sellerText, decisionMarkup(order.ID, buyer.ID))
}

// handleConfirm closes the deal and discloses the two handles to each other.
func (b *Bot) handleConfirm(c *telebot.Callback, act action) {
	order, err := b.market.Confirm(act.OrderID, c.Sender.ID)
	if errors.Is(err, models.ErrOrderUnavailable) {
		b.edit(c.Message, "Error: Order could not be confirmed.")
		return
	}
	if err != nil {
		b.logger.Error("confirm failed", zap.Int64("order_id", act.OrderID), zap.Error(err))
		b.edit(c.Message, "An error occurred. Please try again later.")
		return
	}

	buyerHandle := "the buyer"
	if order.BuyerUsername != nil {
		buyerHandle = *order.BuyerUsername
	}

	b.edit(c.Message, "✅ Deal confirmed. This order is now closed.")
	b.send(c.Sender, fmt.Sprintf("👤 Buyer's Username: %s", buyerHandle))
	b.send(&telebot.User{ID: act.BuyerID}, fmt.Sprintf(
		"✅ The seller has confirmed your deal.\n👤 Seller's Username: %s", order.SellerUsername))
}

// handleReject returns the order to the market and informs the buyer.
func (b *Bot) handleReject(c *telebot.Callback, act action) {
	if err := b.market.Reject(act.OrderID, c.Sender.ID); err != nil {
		if !errors.Is(err, models.ErrOrderUnavailable) {
			b.logger.Error("reject failed", zap.Int64("order_id", act.OrderID), zap.Error(err))
		}
		b.edit(c.Message, "Error: Order could not be processed.")
		return
	}

	b.edit(c.Message, "❌ Request rejected. Your order is active again.")
	b.send(&telebot.User{ID: act.BuyerID}, fmt.Sprintf(
		"❌ The seller has rejected your request for order #%d.", act.OrderID))
}

// handleDelete cancels the sender's own order.
func (b *Bot) handleDelete(c *telebot.Callback, orderID int64) {
	if err := b.market.Delete(orderID, c.Sender.ID); err != nil {
		if !errors.Is(err, models.ErrOrderNotFound) {
			b.logger.Error("delete failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		b.edit(c.Message, "Error: Order not found or you don't have permission.")
		return
	}
	b.edit(c.Message, fmt.Sprintf("✅ Order #%d has been successfully deleted.", orderID))
}

// renderPrompt sends a conversation prompt. Button-driven prompts replace
// the message the button lived on; text-driven prompts append.
func (b *Bot) renderPrompt(to telebot.Recipient, source *telebot.Message, p flow.Prompt) {
	if p.Text == "" {
		return
	}

	if p.Edit && source != nil {
		if len(p.Assets) > 0 {
			b.edit(source, p.Text, assetMarkup(p.Assets))
		} else {
			b.edit(source, p.Text)
		}
		return
	}

	if len(p.Assets) > 0 {
		b.send(to, p.Text, assetMarkup(p.Assets))
	} else {
		b.send(to, p.Text)
	}
}

func (b *Bot) send(to telebot.Recipient, what interface{}, options ...interface{}) {
	if _, err := b.teleBot.Send(to, what, options...); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) edit(msg telebot.Editable, what interface{}, options ...interface{}) {
	if _, err := b.teleBot.Edit(msg, what, options...); err != nil {
		b.logger.Error("failed to edit message", zap.Error(err))
	}
}
