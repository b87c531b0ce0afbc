package models

import "github.com/pkg/errors"

var (
	// ErrInvalidAmount indicates amount input that is not a positive number
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidAsset indicates an asset value outside the catalog
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrAssetConflict indicates the requested asset equals the offered asset
	ErrAssetConflict = errors.New("requested asset equals offered asset")
	// ErrOrderUnavailable indicates a lifecycle action lost a race: the order
	// already moved out of the expected status
	ErrOrderUnavailable = errors.New("order is no longer available")
	// ErrOrderNotFound covers both a missing order and a permission mismatch,
	// deliberately indistinguishable to the caller
	ErrOrderNotFound = errors.New("order not found or not yours")
	// ErrNoSession indicates input arrived with no conversation in progress
	ErrNoSession = errors.New("no active conversation")
)
