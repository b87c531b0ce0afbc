package flow_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzbazar/orderbook-bot/flow"
	"github.com/arzbazar/orderbook-bot/models"
)

// mockWriter implements flow.OrderWriter for testing.
type mockWriter struct {
	created []models.Order
	err     error
}

func (m *mockWriter) CreateOrder(o models.Order) (models.Order, error) {
	if m.err != nil {
		return models.Order{}, m.err
	}
	o.ID = int64(len(m.created) + 1)
	m.created = append(m.created, o)
	return o, nil
}

var seller = models.User{ID: 10, Username: "seller"}

func TestSellFlowHappyPath(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)

	prompt := m.Begin(seller.ID)
	assert.Equal(t, models.Assets(), prompt.Assets)
	assert.False(t, prompt.Edit)

	prompt, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	assert.True(t, prompt.Edit, "button-driven prompt should replace the message")
	assert.Empty(t, prompt.Assets)

	prompt, err = m.EnterAmount(seller, "100")
	require.NoError(t, err)
	assert.False(t, prompt.Edit, "text-driven prompt should append")
	assert.Equal(t, models.Assets(), prompt.Assets)

	prompt, err = m.SelectAsset(seller.ID, "Million Toman")
	require.NoError(t, err)
	assert.True(t, prompt.Edit)

	prompt, err = m.EnterAmount(seller, "500000")
	require.NoError(t, err)
	assert.Contains(t, prompt.Text, "created successfully")

	require.Len(t, writer.created, 1)
	order := writer.created[0]
	assert.Equal(t, seller.ID, order.SellerID)
	assert.Equal(t, "@seller", order.SellerUsername)
	assert.Equal(t, models.AssetCleanUSD, order.AssetOffered)
	assert.True(t, order.AmountOffered.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.AssetMillionToman, order.AssetRequested)
	assert.True(t, order.AmountRequested.Equal(decimal.NewFromInt(500000)))

	assert.False(t, m.Active(seller.ID), "draft should be cleared after commit")
}

func TestInvalidAmountDoesNotAdvance(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a number", "abc"},
		{"negative", "-5"},
		{"zero", "0"},
		{"garbage decimal", "12.5.3"},
		{"empty", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			writer := &mockWriter{}
			m := flow.NewManager(writer)
			m.Begin(seller.ID)
			_, err := m.SelectAsset(seller.ID, "Clean USD")
			require.NoError(t, err)

			prompt, err := m.EnterAmount(seller, test.input)
			assert.ErrorIs(t, err, models.ErrInvalidAmount)
			assert.Contains(t, prompt.Text, "Invalid number")
			assert.Empty(t, writer.created)

			// Still collecting the offered amount: a valid retry moves on to
			// the requested-asset choice.
			prompt, err = m.EnterAmount(seller, "50")
			require.NoError(t, err)
			assert.Equal(t, models.Assets(), prompt.Assets)
		})
	}
}

func TestAssetConflictAbortsFlow(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)

	m.Begin(seller.ID)
	_, err := m.SelectAsset(seller.ID, "Dirty USD")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "10")
	require.NoError(t, err)

	prompt, err := m.SelectAsset(seller.ID, "Dirty USD")
	assert.ErrorIs(t, err, models.ErrAssetConflict)
	assert.Contains(t, prompt.Text, "cannot be the same")

	assert.Empty(t, writer.created, "no order may exist after an aborted flow")
	assert.False(t, m.Active(seller.ID))
}

func TestOutOfCatalogAssetReprompts(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)
	m.Begin(seller.ID)

	prompt, err := m.SelectAsset(seller.ID, "Doge")
	assert.ErrorIs(t, err, models.ErrInvalidAsset)
	assert.Equal(t, models.Assets(), prompt.Assets)

	// The step did not advance; a catalog member is still accepted.
	prompt, err = m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	assert.Contains(t, prompt.Text, "offering: Clean USD")
}

func TestTextDuringAssetStepRepromptsChoices(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)
	m.Begin(seller.ID)

	// Waiting for the offered-asset button; typed text (numeric or not)
	// re-shows the asset keyboard instead of complaining about a number.
	for _, input := range []string{"100", "Clean USD"} {
		prompt, err := m.EnterAmount(seller, input)
		assert.ErrorIs(t, err, models.ErrInvalidAsset)
		assert.Contains(t, prompt.Text, "pick one of the listed assets")
		assert.Equal(t, models.Assets(), prompt.Assets)
	}

	// The step did not advance; the flow still completes normally.
	_, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "100")
	require.NoError(t, err)

	// Same at the requested-asset step.
	prompt, err := m.EnterAmount(seller, "500000")
	assert.ErrorIs(t, err, models.ErrInvalidAsset)
	assert.Equal(t, models.Assets(), prompt.Assets)

	_, err = m.SelectAsset(seller.ID, "Million Toman")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "500000")
	require.NoError(t, err)

	require.Len(t, writer.created, 1)
	assert.Equal(t, models.AssetCleanUSD, writer.created[0].AssetOffered)
}

func TestCancelDiscardsDraft(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)

	m.Begin(seller.ID)
	_, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)

	prompt := m.Cancel(seller.ID)
	assert.Equal(t, "Operation cancelled.", prompt.Text)
	assert.False(t, m.Active(seller.ID))
	assert.Empty(t, writer.created)
}

func TestSellResetsStaleDraft(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)

	// Abandon a flow halfway through.
	m.Begin(seller.ID)
	_, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "100")
	require.NoError(t, err)

	// A fresh /sell starts from the beginning regardless.
	prompt := m.Begin(seller.ID)
	assert.Equal(t, models.Assets(), prompt.Assets)

	prompt, err = m.SelectAsset(seller.ID, "Million Toman")
	require.NoError(t, err)
	assert.Contains(t, prompt.Text, "offering: Million Toman")
}

func TestCommitFailureClearsDraft(t *testing.T) {
	writer := &mockWriter{err: errors.New("disk on fire")}
	m := flow.NewManager(writer)

	m.Begin(seller.ID)
	_, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "100")
	require.NoError(t, err)
	_, err = m.SelectAsset(seller.ID, "Million Toman")
	require.NoError(t, err)

	prompt, err := m.EnterAmount(seller, "500000")
	assert.Error(t, err)
	assert.Contains(t, prompt.Text, "Could not save the order")

	// A failed commit must not leave a stale draft blocking a fresh /sell.
	assert.False(t, m.Active(seller.ID))
	writer.err = nil
	prompt = m.Begin(seller.ID)
	assert.Equal(t, models.Assets(), prompt.Assets)
}

func TestInputWithoutSession(t *testing.T) {
	m := flow.NewManager(&mockWriter{})

	_, err := m.EnterAmount(seller, "100")
	assert.ErrorIs(t, err, models.ErrNoSession)

	_, err = m.SelectAsset(seller.ID, "Clean USD")
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestConcurrentSellersHaveIndependentDrafts(t *testing.T) {
	writer := &mockWriter{}
	m := flow.NewManager(writer)
	other := models.User{ID: 20, Username: "other"}

	m.Begin(seller.ID)
	m.Begin(other.ID)

	_, err := m.SelectAsset(seller.ID, "Clean USD")
	require.NoError(t, err)
	_, err = m.SelectAsset(other.ID, "Dirty USD")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "1")
	require.NoError(t, err)
	_, err = m.EnterAmount(other, "2")
	require.NoError(t, err)
	_, err = m.SelectAsset(seller.ID, "Million Toman")
	require.NoError(t, err)
	_, err = m.SelectAsset(other.ID, "Million Toman")
	require.NoError(t, err)
	_, err = m.EnterAmount(seller, "3")
	require.NoError(t, err)
	_, err = m.EnterAmount(other, "4")
	require.NoError(t, err)

	require.Len(t, writer.created, 2)
	assert.Equal(t, models.AssetCleanUSD, writer.created[0].AssetOffered)
	assert.Equal(t, models.AssetDirtyUSD, writer.created[1].AssetOffered)
}
