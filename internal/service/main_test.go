package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/programerkawsar/marketplace-api/internal/client"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	ids.Init(1)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// busy_timeout keeps concurrent writers waiting instead of failing.
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, client.AutoMigrate(db))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, user *model.User) *model.User {
	t.Helper()

	if user.ID == 0 {
		user.ID = ids.Next()
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func seedProduct(t *testing.T, db *gorm.DB, product *model.Product) *model.Product {
	t.Helper()

	if product.ID == 0 {
		product.ID = ids.Next()
	}
	require.NoError(t, db.Create(product).Error)

	return product
}

func seedFee(t *testing.T, db *gorm.DB, license string, amount int64) {
	t.Helper()

	require.NoError(t, repository.NewFeeRepository(db).Upsert(context.Background(), &model.LicenseFee{
		ID:      ids.Next(),
		License: license,
		Amount:  amount,
	}))
}

func balanceOf(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()

	var balance int64
	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", userID).
		Pluck("balance", &balance).Error)

	return balance
}
