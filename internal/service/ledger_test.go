package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(db *gorm.DB) LedgerService {
	return NewLedgerService(db, repository.NewAccountRepository(db))
}

func TestLedger_DebitBuyer(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, &model.User{Email: "buyer@example.com", Balance: 200})
	ledger := newLedger(db)

	require.NoError(t, ledger.DebitBuyer(context.Background(), buyer.ID, 75))
	assert.Equal(t, int64(125), balanceOf(t, db, buyer.ID))
}

func TestLedger_DebitBuyerInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, &model.User{Email: "buyer@example.com", Balance: 50})
	ledger := newLedger(db)

	err := ledger.DebitBuyer(context.Background(), buyer.ID, 75)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
	// The conditional update must not have touched the balance.
	assert.Equal(t, int64(50), balanceOf(t, db, buyer.ID))
}

func TestLedger_DebitBuyerUnknownAccount(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)

	err := ledger.DebitBuyer(context.Background(), 424242, 10)
	require.Error(t, err)
	// A missing account is not the same failure as an empty one.
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLedger_DebitBuyerConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, &model.User{Email: "buyer@example.com", Balance: 100})
	ledger := newLedger(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	var settled int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.DebitBuyer(ctx, buyer.ID, 10)
			if err == nil {
				atomic.AddInt64(&settled, 1)
				return
			}
			assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
		}()
	}
	wg.Wait()

	// The balance covers exactly ten debits; the rest must bounce.
	assert.Equal(t, int64(10), settled)
	assert.Equal(t, int64(0), balanceOf(t, db, buyer.ID))
}

func TestLedger_CreditSellerConcurrentCreditsAllLand(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	ledger := newLedger(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ledger.CreditSeller(ctx, db, seller.ID, 5))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), balanceOf(t, db, seller.ID))
}

func TestLedger_CreditSellerAccumulates(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	ledger := newLedger(db)
	ctx := context.Background()

	require.NoError(t, ledger.CreditSeller(ctx, db, seller.ID, 80))
	require.NoError(t, ledger.CreditSeller(ctx, db, seller.ID, 200))

	assert.Equal(t, int64(280), balanceOf(t, db, seller.ID))
}

func TestLedger_CreditSellerRejectsNegativeAmount(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com", Balance: 100})
	ledger := newLedger(db)

	require.Error(t, ledger.CreditSeller(context.Background(), db, seller.ID, -10))
	assert.Equal(t, int64(100), balanceOf(t, db, seller.ID))
}

func TestLedger_ZeroBalance(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com", Balance: 7500})
	ledger := newLedger(db)

	previous, err := ledger.ZeroBalance(context.Background(), seller.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(7500), previous)
	assert.Equal(t, int64(0), balanceOf(t, db, seller.ID))
}

func TestLedger_RefundBuyerRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, &model.User{Email: "buyer@example.com", Balance: 100})
	ledger := newLedger(db)
	ctx := context.Background()

	require.NoError(t, ledger.DebitBuyer(ctx, buyer.ID, 60))
	require.NoError(t, ledger.RefundBuyer(ctx, buyer.ID, 60))

	assert.Equal(t, int64(100), balanceOf(t, db, buyer.ID))
}
