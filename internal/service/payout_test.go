package service

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPayoutMinimum = int64(5000)

func newPayoutService(t *testing.T, db *gorm.DB) PayoutService {
	t.Helper()

	accountRepo := repository.NewAccountRepository(db)
	return NewPayoutService(
		NewLedgerService(db, accountRepo),
		accountRepo,
		repository.NewPayoutRepository(db),
		EventBus.New(),
		testPayoutMinimum,
	)
}

func TestRequestPayout_BelowMinimumRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPayoutService(t, db)
	seller := seedUser(t, db, &model.User{
		Email:        "seller@example.com",
		Balance:      testPayoutMinimum - 1,
		PayoutMethod: "paypal",
	})

	_, err := svc.RequestPayout(context.Background(), seller.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
	assert.Equal(t, testPayoutMinimum-1, balanceOf(t, db, seller.ID))
}

func TestRequestPayout_MissingPayoutMethodRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPayoutService(t, db)
	seller := seedUser(t, db, &model.User{
		Email:   "seller@example.com",
		Balance: 12000,
	})

	_, err := svc.RequestPayout(context.Background(), seller.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, int64(12000), balanceOf(t, db, seller.ID))
}

func TestRequestPayout_ZeroesBalanceAndRecordsPayout(t *testing.T) {
	db := newTestDB(t)
	svc := newPayoutService(t, db)
	seller := seedUser(t, db, &model.User{
		Email:        "seller@example.com",
		Balance:      12000,
		PayoutMethod: "paypal",
	})

	resp, err := svc.RequestPayout(context.Background(), seller.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(12000), resp.Amount)
	assert.Equal(t, "paypal", resp.Method)
	assert.Equal(t, int64(0), balanceOf(t, db, seller.ID))

	payouts, err := svc.ListPayouts(context.Background(), seller.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(12000), payouts[0].Amount)

	// A second request finds an empty balance.
	_, err = svc.RequestPayout(context.Background(), seller.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
}
