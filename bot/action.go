package bot

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/arzbazar/orderbook-bot/models"
)

// actionKind enumerates everything a callback payload can mean.
type actionKind int

const (
	actionAsset   actionKind = iota // bare catalog member, sell-flow selection
	actionFilter                    // filter_<asset|All>
	actionBuy                       // buy_<orderID>
	actionConfirm                   // confirm_<orderID>_<buyerID>
	actionReject                    // reject_<orderID>_<buyerID>
	actionDelete                    // delete_<orderID>
)

// action is a callback payload decoded exactly once at the transport
// boundary; handlers dispatch on Kind instead of re-splitting strings.
type action struct {
	Kind    actionKind
	Asset   string // actionAsset, actionFilter ("All" means no filter)
	OrderID int64
	BuyerID int64
}

func parseAction(data string) (action, error) {
	data = strings.TrimPrefix(data, "\f")

	// Asset names contain spaces and underscores never appear in them, so a
	// bare catalog member cannot collide with the tagged forms.
	if models.ValidAsset(data) {
		return action{Kind: actionAsset, Asset: data}, nil
	}

	tag, rest, ok := strings.Cut(data, "_")
	if !ok {
		return action{}, errors.Errorf("unrecognized callback payload %q", data)
	}

	switch tag {
	case "filter":
		if rest != "All" && !models.ValidAsset(rest) {
			return action{}, errors.Errorf("unknown filter %q", rest)
		}
		return action{Kind: actionFilter, Asset: rest}, nil

	case "buy", "delete":
		orderID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return action{}, errors.Wrapf(err, "bad order id in %q", data)
		}
		kind := actionBuy
		if tag == "delete" {
			kind = actionDelete
		}
		return action{Kind: kind, OrderID: orderID}, nil

	case "confirm", "reject":
		orderPart, buyerPart, ok := strings.Cut(rest, "_")
		if !ok {
			return action{}, errors.Errorf("missing buyer id in %q", data)
		}
		orderID, err := strconv.ParseInt(orderPart, 10, 64)
		if err != nil {
			return action{}, errors.Wrapf(err, "bad order id in %q", data)
		}
		buyerID, err := strconv.ParseInt(buyerPart, 10, 64)
		if err != nil {
			return action{}, errors.Wrapf(err, "bad buyer id in %q", data)
		}
		kind := actionConfirm
		if tag == "reject" {
			kind = actionReject
		}
		return action{Kind: kind, OrderID: orderID, BuyerID: buyerID}, nil

	default:
		return action{}, errors.Errorf("unrecognized callback payload %q", data)
	}
}
