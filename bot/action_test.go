package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		data string
		want action
	}{
		{"buy", "buy_7", action{Kind: actionBuy, OrderID: 7}},
		{"delete", "delete_3", action{Kind: actionDelete, OrderID: 3}},
		{"confirm", "confirm_7_42", action{Kind: actionConfirm, OrderID: 7, BuyerID: 42}},
		{"reject", "reject_7_42", action{Kind: actionReject, OrderID: 7, BuyerID: 42}},
		{"filter asset", "filter_Clean USD", action{Kind: actionFilter, Asset: "Clean USD"}},
		{"filter all", "filter_All", action{Kind: actionFilter, Asset: "All"}},
		{"bare asset", "Million Toman", action{Kind: actionAsset, Asset: "Million Toman"}},
		{"telebot prefix stripped", "\fClean USD", action{Kind: actionAsset, Asset: "Clean USD"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseAction(test.data)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseActionRejectsGarbage(t *testing.T) {
	for _, data := range []string{
		"",
		"junk",
		"buy_",
		"buy_seven",
		"confirm_7",
		"confirm_7_buyer",
		"reject__",
		"filter_Doge",
		"Doge",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := parseAction(data)
			assert.Error(t, err)
		})
	}
}
