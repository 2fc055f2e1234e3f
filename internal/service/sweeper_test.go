package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newSweeper builds a sweeper whose TTL already treats fresh orders as
// stale, so tests do not have to rewrite timestamps.
func newSweeper(db *gorm.DB) *Sweeper {
	return NewSweeper(
		db,
		repository.NewOrderRepository(db),
		repository.NewIdempotencyRepository(db),
		repository.NewReconciliationRepository(db),
		-time.Hour,
	)
}

func TestSweep_ExpiresStalePendingWalletOrders(t *testing.T) {
	env := newSettleEnv(t)
	buyer := seedUser(t, env.db, &model.User{Email: "buyer@example.com"})
	seller := seedUser(t, env.db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, env.db, &model.Product{
		Name:          "Mockup kit",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, env.db, model.LicenseRegular, 20)

	ctx := context.Background()
	resp, err := env.svc.SubmitOrder(ctx, buyer.ID, submitReq(product.ID, model.PaymentMethodWallet, "cart-1"))
	require.NoError(t, err)

	require.NoError(t, newSweeper(env.db).Sweep(ctx))

	order, err := env.svc.GetOrder(ctx, buyer.ID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, order.Status)

	// The expired key is reclaimable, so the buyer can start over.
	second, err := env.svc.SubmitOrder(ctx, buyer.ID, submitReq(product.ID, model.PaymentMethodWallet, "cart-1"))
	require.NoError(t, err)
	assert.NotEqual(t, resp.OrderID, second.OrderID)
}

func TestSweep_LeavesSettledOrdersAlone(t *testing.T) {
	env := newSettleEnv(t)
	buyer := seedUser(t, env.db, &model.User{Email: "buyer@example.com", Balance: 200})
	seller := seedUser(t, env.db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, env.db, &model.Product{
		Name:          "Resume template",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, env.db, model.LicenseRegular, 20)

	ctx := context.Background()
	resp, err := env.svc.SubmitOrder(ctx, buyer.ID, submitReq(product.ID, model.PaymentMethodBalance, "cart-1"))
	require.NoError(t, err)

	require.NoError(t, newSweeper(env.db).Sweep(ctx))

	order, err := env.svc.GetOrder(ctx, buyer.ID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusSettled, order.Status)
}

func TestSweep_CaptureAfterExpiryEscalates(t *testing.T) {
	env := newSettleEnv(t)
	buyer := seedUser(t, env.db, &model.User{Email: "buyer@example.com"})
	seller := seedUser(t, env.db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, env.db, &model.Product{
		Name:          "Keynote deck",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, env.db, model.LicenseRegular, 20)

	ctx := context.Background()
	_, err := env.svc.SubmitOrder(ctx, buyer.ID, submitReq(product.ID, model.PaymentMethodWallet, "cart-1"))
	require.NoError(t, err)

	require.NoError(t, newSweeper(env.db).Sweep(ctx))

	// The buyer approved the payment anyway: money moved with no
	// settleable order. That is an operator problem, not a webhook
	// failure, so the event is acknowledged and filed once.
	require.NoError(t, env.svc.HandleWalletWebhook(ctx, http.Header{}, captureWebhookBody("WH-1", "INTENT-1")))
	require.NoError(t, env.svc.HandleWalletWebhook(ctx, http.Header{}, captureWebhookBody("WH-1", "INTENT-1")))

	sweeper := newSweeper(env.db)
	records, err := sweeper.Reconciliations(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// No credit ever reached the seller.
	assert.Equal(t, int64(0), balanceOf(t, env.db, seller.ID))

	// An operator resolves the record out of band and clears the queue.
	require.NoError(t, sweeper.ResolveReconciliation(ctx, records[0].ID))
	records, err = sweeper.Reconciliations(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	err = sweeper.ResolveReconciliation(ctx, "no-such-record")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
