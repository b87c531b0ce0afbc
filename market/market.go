// Package market owns the order lifecycle: listing the book and moving
// orders along active → pending → closed/active and active → cancelled.
// Every mutation is delegated to a conditional store write, so a lost race
// surfaces as a conflict error instead of a lost update.
package market

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/arzbazar/orderbook-bot/models"
)

// Store is the order persistence the manager drives. Mark* methods are
// compare-and-set transitions: they succeed only if the row still matched
// the expected status (and owner) at write time.
type Store interface {
	GetOrder(id int64) (*models.Order, error)
	ListActive(filter *models.Asset, excludeSeller int64) ([]models.Order, error)
	ListBySeller(sellerID int64) ([]models.Order, error)
	MarkPending(orderID int64, buyer models.User) error
	MarkClosed(orderID, sellerID int64) error
	MarkActive(orderID, sellerID int64) error
	MarkCancelled(orderID, sellerID int64) error
}

// Manager enforces the legal order status transitions
type Manager struct {
	store  Store
	logger *zap.Logger
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// List returns the active orders the requester can buy, newest first,
// optionally narrowed to one offered asset. The requester's own orders are
// excluded; /myorders is the view for those.
func (m *Manager) List(filter *models.Asset, requesterID int64) ([]models.Order, error) {
	return m.store.ListActive(filter, requesterID)
}

// MyOrders returns the seller's own active orders.
func (m *Manager) MyOrders(sellerID int64) ([]models.Order, error) {
	return m.store.ListBySeller(sellerID)
}

// Buy claims an active order for the buyer, moving it to pending. Of two
// simultaneous buyers exactly one wins; the loser gets ErrOrderUnavailable.
// On success the claimed order is returned so the caller can notify the
// seller.
func (m *Manager) Buy(orderID int64, buyer models.User) (*models.Order, error) {
	if err := m.store.MarkPending(orderID, buyer); err != nil {
		if errors.Is(err, models.ErrOrderUnavailable) {
			m.logger.Info("buy lost the race",
				zap.Int64("order_id", orderID), zap.Int64("buyer_id", buyer.ID))
			return nil, err
		}
		return nil, errors.Wrap(err, "buy transition failed")
	}

	order, err := m.store.GetOrder(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load claimed order")
	}
	return order, nil
}

// Confirm closes a pending order on behalf of its seller, stamping closed_at.
// The returned order carries the stored buyer and seller handles for the
// mutual disclosure messages — identity is revealed only at this step.
func (m *Manager) Confirm(orderID, sellerID int64) (*models.Order, error) {
	if err := m.store.MarkClosed(orderID, sellerID); err != nil {
		if errors.Is(err, models.ErrOrderUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(err, "confirm transition failed")
	}

	order, err := m.store.GetOrder(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load closed order")
	}
	return order, nil
}

// Reject returns a pending order to the market and drops the buyer.
func (m *Manager) Reject(orderID, sellerID int64) error {
	if err := m.store.MarkActive(orderID, sellerID); err != nil {
		if errors.Is(err, models.ErrOrderUnavailable) {
			return err
		}
		return errors.Wrap(err, "reject transition failed")
	}
	return nil
}

// Delete cancels an active order when the requester is its seller. A missing
// order and a foreign order produce the same error, so the caller cannot
// probe which it was.
func (m *Manager) Delete(orderID, sellerID int64) error {
	if err := m.store.MarkCancelled(orderID, sellerID); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			m.logger.Info("delete refused",
				zap.Int64("order_id", orderID), zap.Int64("requester_id", sellerID))
			return err
		}
		return errors.Wrap(err, "delete transition failed")
	}
	return nil
}
