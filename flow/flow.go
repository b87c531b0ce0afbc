// Package flow runs the sequential sell conversation: it collects the four
// fields of a new order across turns, validates each input and commits one
// order when the last field arrives. It knows nothing about the transport;
// every step returns a Prompt for the adapter to render.
package flow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/arzbazar/orderbook-bot/models"
)

// step identifies the field the conversation is currently collecting.
type step int

const (
	stepOfferedAsset step = iota
	stepOfferedAmount
	stepRequestedAsset
	stepRequestedAmount
)

// draft accumulates order fields until commit
type draft struct {
	assetOffered    models.Asset
	amountOffered   decimal.Decimal
	assetRequested  models.Asset
	amountRequested decimal.Decimal
}

type session struct {
	step  step
	draft draft
}

// Prompt is the single outbound message a step produces. Assets, when set,
// are rendered as a choice keyboard. Edit marks prompts that replace the
// button-bearing message instead of appending a new one.
type Prompt struct {
	Text   string
	Assets []models.Asset
	Edit   bool
}

// OrderWriter persists a completed draft.
type OrderWriter interface {
	CreateOrder(o models.Order) (models.Order, error)
}

// Manager holds one draft per user. Sessions live in memory only; an
// abandoned draft is overwritten by the next /sell.
type Manager struct {
	orders OrderWriter

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewManager(orders OrderWriter) *Manager {
	return &Manager{
		orders:   orders,
		sessions: make(map[int64]*session),
	}
}

// Active reports whether the user has a conversation in progress.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Begin starts (or restarts) the sell conversation. Any prior draft is
// discarded, so a stale never-finished flow cannot block a fresh one.
func (m *Manager) Begin(userID int64) Prompt {
	m.mu.Lock()
	m.sessions[userID] = &session{step: stepOfferedAsset}
	m.mu.Unlock()

	return Prompt{
		Text:   "Please choose the asset you are OFFERING:",
		Assets: models.Assets(),
	}
}

// Cancel ends the conversation and discards the draft.
func (m *Manager) Cancel(userID int64) Prompt {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return Prompt{Text: "Operation cancelled."}
}

// SelectAsset feeds a button-selected asset into the conversation.
func (m *Manager) SelectAsset(userID int64, value string) (Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Prompt{}, models.ErrNoSession
	}

	if !models.ValidAsset(value) {
		// The keyboard only offers catalog members, so this is a forged or
		// stale payload. Re-prompt without advancing.
		return Prompt{
			Text:   "Please pick one of the listed assets:",
			Assets: models.Assets(),
			Edit:   true,
		}, models.ErrInvalidAsset
	}
	asset := models.Asset(value)

	switch s.step {
	case stepOfferedAsset:
		s.draft.assetOffered = asset
		s.step = stepOfferedAmount
		return Prompt{
			Text: fmt.Sprintf("You are offering: %s.\n\nPlease enter the AMOUNT you are offering:", asset),
			Edit: true,
		}, nil

	case stepRequestedAsset:
		if asset == s.draft.assetOffered {
			delete(m.sessions, userID)
			return Prompt{
				Text: "The requested asset cannot be the same as the offered asset. Please start over with /sell.",
				Edit: true,
			}, models.ErrAssetConflict
		}
		s.draft.assetRequested = asset
		s.step = stepRequestedAmount
		return Prompt{
			Text: fmt.Sprintf("You are requesting: %s.\n\nPlease enter the AMOUNT you are requesting:", asset),
			Edit: true,
		}, nil

	default:
		// An asset button arrived while waiting for a typed amount; ignore it.
		return Prompt{}, models.ErrInvalidAsset
	}
}

// EnterAmount feeds a free-text reply into the conversation. On the final
// amount the draft is committed through the OrderWriter and the session is
// cleared whether or not the write succeeds.
func (m *Manager) EnterAmount(user models.User, text string) (Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[user.ID]
	if !ok {
		return Prompt{}, models.ErrNoSession
	}

	if s.step != stepOfferedAmount && s.step != stepRequestedAmount {
		// Typed text while an asset choice is on screen; re-show the options.
		return Prompt{
			Text:   "Please pick one of the listed assets:",
			Assets: models.Assets(),
		}, models.ErrInvalidAsset
	}

	amount, err := parseAmount(text)
	if err != nil {
		// Draft and step stay untouched; the user just tries again.
		return Prompt{Text: "Invalid number. Please enter a positive amount."}, err
	}

	if s.step == stepOfferedAmount {
		s.draft.amountOffered = amount
		s.step = stepRequestedAsset
		return Prompt{
			Text:   "Now, please choose the asset you are REQUESTING:",
			Assets: models.Assets(),
		}, nil
	}

	s.draft.amountRequested = amount
	return m.commit(user, s.draft)
}

// commit validates the finished draft once more, inserts the order and
// always clears the session. Caller holds the lock.
func (m *Manager) commit(user models.User, d draft) (Prompt, error) {
	delete(m.sessions, user.ID)

	if d.assetRequested == d.assetOffered {
		return Prompt{
			Text: "The requested asset cannot be the same as the offered asset. Please start over with /sell.",
		}, models.ErrAssetConflict
	}

	order, err := m.orders.CreateOrder(models.Order{
		SellerID:        user.ID,
		SellerUsername:  "@" + user.Username,
		AssetOffered:    d.assetOffered,
		AmountOffered:   d.amountOffered,
		AssetRequested:  d.assetRequested,
		AmountRequested: d.amountRequested,
	})
	if err != nil {
		return Prompt{Text: "An error occurred. Could not save the order."}, err
	}

	return Prompt{
		Text: fmt.Sprintf(
			"✅ Order #%d created successfully!\n\n🔹 You Offer: %s %s\n🔸 You Request: %s %s",
			order.ID,
			models.FormatAmount(order.AmountOffered), order.AssetOffered,
			models.FormatAmount(order.AmountRequested), order.AssetRequested),
	}, nil
}

func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || amount.Sign() <= 0 {
		return decimal.Decimal{}, models.ErrInvalidAmount
	}
	return amount, nil
}
