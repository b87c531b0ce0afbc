package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	// StatusActive indicates an order visible on the market
	StatusActive OrderStatus = "active"
	// StatusPending indicates an order claimed by a buyer, awaiting the seller's decision
	StatusPending OrderStatus = "pending"
	// StatusClosed indicates an order the seller confirmed; the trade is done
	StatusClosed OrderStatus = "closed"
	// StatusCancelled indicates an order deleted by its seller
	StatusCancelled OrderStatus = "cancelled"
)

// Asset is a member of the fixed tradable-asset catalog
type Asset string

const (
	AssetMillionToman Asset = "Million Toman"
	AssetCleanUSD     Asset = "Clean USD"
	AssetDirtyUSD     Asset = "Dirty USD"
)

// Assets returns the catalog in presentation order.
func Assets() []Asset {
	return []Asset{AssetMillionToman, AssetCleanUSD, AssetDirtyUSD}
}

// ValidAsset reports whether s is a catalog member.
func ValidAsset(s string) bool {
	for _, a := range Assets() {
		if string(a) == s {
			return true
		}
	}
	return false
}

// Order represents an offer to trade AmountOffered of AssetOffered
// for AmountRequested of AssetRequested
type Order struct {
	ID              int64
	SellerID        int64
	SellerUsername  string
	AssetOffered    Asset
	AmountOffered   decimal.Decimal
	AssetRequested  Asset
	AmountRequested decimal.Decimal
	BuyerID         *int64
	BuyerUsername   *string
	Status          OrderStatus
	CreatedAt       time.Time
	ClosedAt        *time.Time
}

// User identifies a chat participant as seen by the transport
type User struct {
	ID       int64
	Username string
}
