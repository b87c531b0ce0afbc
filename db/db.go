package db

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/arzbazar/orderbook-bot/models"
	"github.com/shopspring/decimal"
)

// Store wraps the SQL database connection holding the orders table.
// Every lifecycle mutation is a single conditional UPDATE keyed on the
// current status (and owner, where ownership matters); the affected row
// count decides between success and a lost race.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewStore initializes the database connection and schema
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Initialize database schema
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seller_id INTEGER NOT NULL,
			seller_username TEXT NOT NULL,
			asset_offered TEXT NOT NULL,
			amount_offered TEXT NOT NULL,
			asset_requested TEXT NOT NULL,
			amount_requested TEXT NOT NULL,
			buyer_id INTEGER,
			buyer_username TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			closed_at TIMESTAMP
		);
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}

	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

const orderColumns = "id, seller_id, seller_username, asset_offered, amount_offered, " +
	"asset_requested, amount_requested, buyer_id, buyer_username, status, created_at, closed_at"

// CreateOrder inserts a new active order and returns it with its assigned id.
func (s *Store) CreateOrder(o models.Order) (models.Order, error) {
	o.Status = models.StatusActive
	o.CreatedAt = time.Now().UTC()

	query, args, err := s.builder.
		Insert("orders").
		Columns("seller_id", "seller_username", "asset_offered", "amount_offered",
			"asset_requested", "amount_requested", "status", "created_at").
		Values(o.SellerID, o.SellerUsername, string(o.AssetOffered), o.AmountOffered.String(),
			string(o.AssetRequested), o.AmountRequested.String(), string(o.Status), o.CreatedAt).
		ToSql()
	if err != nil {
		return models.Order{}, errors.Wrap(err, "failed to build insert")
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return models.Order{}, errors.Wrap(err, "failed to insert order")
	}
	o.ID, err = res.LastInsertId()
	if err != nil {
		return models.Order{}, errors.Wrap(err, "failed to read order id")
	}
	return o, nil
}

// GetOrder fetches one order by id.
func (s *Store) GetOrder(id int64) (*models.Order, error) {
	query, args, err := s.builder.
		Select(orderColumns).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build select")
	}

	o, err := scanOrder(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch order")
	}
	return o, nil
}

// ListActive returns active orders newest first, optionally narrowed to one
// offered asset. The requester's own orders are left out; those belong to
// the ListBySeller view.
func (s *Store) ListActive(filter *models.Asset, excludeSeller int64) ([]models.Order, error) {
	q := s.builder.
		Select(orderColumns).
		From("orders").
		Where(sq.Eq{"status": string(models.StatusActive)}).
		Where(sq.NotEq{"seller_id": excludeSeller}).
		OrderBy("created_at DESC", "id DESC")
	if filter != nil {
		q = q.Where(sq.Eq{"asset_offered": string(*filter)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build select")
	}
	return s.queryOrders(query, args...)
}

// ListBySeller returns the seller's own active orders, newest first.
func (s *Store) ListBySeller(sellerID int64) ([]models.Order, error) {
	query, args, err := s.builder.
		Select(orderColumns).
		From("orders").
		Where(sq.Eq{"seller_id": sellerID, "status": string(models.StatusActive)}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build select")
	}
	return s.queryOrders(query, args...)
}

// MarkPending claims an active order for the buyer. The status check and the
// buyer attribution happen in one statement, so of two simultaneous buyers
// exactly one can win.
func (s *Store) MarkPending(orderID int64, buyer models.User) error {
	return s.transition(
		sq.Update("orders").
			Set("status", string(models.StatusPending)).
			Set("buyer_id", buyer.ID).
			Set("buyer_username", buyer.Username).
			Where(sq.Eq{"id": orderID, "status": string(models.StatusActive)}),
		models.ErrOrderUnavailable,
	)
}

// MarkClosed closes a pending order on behalf of its seller and stamps closed_at.
func (s *Store) MarkClosed(orderID, sellerID int64) error {
	return s.transition(
		sq.Update("orders").
			Set("status", string(models.StatusClosed)).
			Set("closed_at", time.Now().UTC()).
			Where(sq.Eq{"id": orderID, "seller_id": sellerID, "status": string(models.StatusPending)}),
		models.ErrOrderUnavailable,
	)
}

// MarkActive returns a pending order to the market and drops the buyer attribution.
func (s *Store) MarkActive(orderID, sellerID int64) error {
	return s.transition(
		sq.Update("orders").
			Set("status", string(models.StatusActive)).
			Set("buyer_id", nil).
			Set("buyer_username", nil).
			Where(sq.Eq{"id": orderID, "seller_id": sellerID, "status": string(models.StatusPending)}),
		models.ErrOrderUnavailable,
	)
}

// MarkCancelled cancels an active order when, and only when, the requester is
// its seller. A missing order and a foreign order fail identically.
func (s *Store) MarkCancelled(orderID, sellerID int64) error {
	return s.transition(
		sq.Update("orders").
			Set("status", string(models.StatusCancelled)).
			Where(sq.Eq{"id": orderID, "seller_id": sellerID, "status": string(models.StatusActive)}),
		models.ErrOrderNotFound,
	)
}

// transition executes a conditional update and maps "no row matched" to the
// supplied conflict error.
func (s *Store) transition(b sq.UpdateBuilder, conflict error) error {
	query, args, err := b.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build update")
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return conflict
	}
	return nil
}

func (s *Store) queryOrders(query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch orders")
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan order")
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o             models.Order
		offered       string
		requested     string
		amountOff     string
		amountReq     string
		status        string
		buyerID       sql.NullInt64
		buyerUsername sql.NullString
		closedAt      sql.NullTime
	)
	err := row.Scan(&o.ID, &o.SellerID, &o.SellerUsername, &offered, &amountOff,
		&requested, &amountReq, &buyerID, &buyerUsername, &status, &o.CreatedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	o.AssetOffered = models.Asset(offered)
	o.AssetRequested = models.Asset(requested)
	o.Status = models.OrderStatus(status)
	if o.AmountOffered, err = decimal.NewFromString(amountOff); err != nil {
		return nil, errors.Wrap(err, "bad amount_offered in row")
	}
	if o.AmountRequested, err = decimal.NewFromString(amountReq); err != nil {
		return nil, errors.Wrap(err, "bad amount_requested in row")
	}
	if buyerID.Valid {
		o.BuyerID = &buyerID.Int64
	}
	if buyerUsername.Valid {
		o.BuyerUsername = &buyerUsername.String
	}
	if closedAt.Valid {
		o.ClosedAt = &closedAt.Time
	}
	return &o, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
