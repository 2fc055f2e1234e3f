package service

import (
	"context"
	"testing"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPricer(t *testing.T, db *gorm.DB) PricingService {
	t.Helper()

	return NewPricingService(
		repository.NewProductRepository(db),
		repository.NewFeeRepository(db),
	)
}

func TestPriceCart_RegularLicenseNoDiscount(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:          "Landing page template",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)

	items, total, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseRegular, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, int64(100), total)
	assert.Equal(t, int64(100), items[0].LineTotal)
	assert.Equal(t, int64(100), items[0].UnitPrice)
	assert.Equal(t, int64(80), items[0].SellerCredit)
	assert.Equal(t, seller.ID, items[0].SellerID)
}

func TestPriceCart_DiscountAffectsBuyerTotalOnly(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:               "Icon pack",
		StandardPrice:      100,
		ExtendedPrice:      250,
		DiscountPercentage: 25,
		SellerID:           seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)

	items, total, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseRegular, Quantity: 1},
	})
	require.NoError(t, err)

	// Discount lowers what the buyer pays; the seller credit is still
	// computed off the undiscounted price.
	assert.Equal(t, int64(75), total)
	assert.Equal(t, int64(75), items[0].LineTotal)
	assert.Equal(t, int64(80), items[0].SellerCredit)
}

func TestPriceCart_FeeAppliedOncePerLineItem(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:          "Font bundle",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)

	items, total, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseRegular, Quantity: 3},
	})
	require.NoError(t, err)

	// Quantity scales the buyer total but the platform fee (and so the
	// seller credit) is charged once per line item.
	assert.Equal(t, int64(300), total)
	assert.Equal(t, int64(80), items[0].SellerCredit)
}

func TestPriceCart_ExtendedLicenseUsesExtendedFee(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:          "Admin dashboard theme",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)
	seedFee(t, db, model.LicenseExtended, 50)

	items, total, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseExtended, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(250), total)
	assert.Equal(t, int64(200), items[0].SellerCredit)
}

func TestPriceCart_TotalIsSumOfLineTotals(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	plain := seedProduct(t, db, &model.Product{
		Name:          "Plain product",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	discounted := seedProduct(t, db, &model.Product{
		Name:               "Discounted product",
		StandardPrice:      200,
		ExtendedPrice:      500,
		DiscountPercentage: 50,
		SellerID:           seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)

	items, total, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: plain.ID, License: model.LicenseRegular, Quantity: 2},
		{ProductID: discounted.ID, License: model.LicenseRegular, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, int64(200), items[0].LineTotal)
	assert.Equal(t, int64(100), items[1].LineTotal)
	assert.Equal(t, int64(300), total)
}

func TestPriceCart_MissingFeeFailsClosed(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:          "UI kit",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	// No fee configured for any tier.

	_, _, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseRegular, Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindFeeNotConfigured, apperr.KindOf(err))
}

func TestPriceCart_Validation(t *testing.T) {
	db := newTestDB(t)
	pricer := newPricer(t, db)
	ctx := context.Background()

	_, _, err := pricer.PriceCart(ctx, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = pricer.PriceCart(ctx, []*dto.CartEntry{
		{ProductID: 1, License: "lifetime", Quantity: 1},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = pricer.PriceCart(ctx, []*dto.CartEntry{
		{ProductID: 1, License: model.LicenseRegular, Quantity: 0},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPriceCart_UnknownProduct(t *testing.T) {
	db := newTestDB(t)
	seedFee(t, db, model.LicenseRegular, 20)

	_, _, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: 424242, License: model.LicenseRegular, Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPriceCart_FeeUpsertReplacesTierAmount(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, &model.User{Email: "seller@example.com"})
	product := seedProduct(t, db, &model.Product{
		Name:          "Admin theme",
		StandardPrice: 100,
		ExtendedPrice: 250,
		SellerID:      seller.ID,
	})
	seedFee(t, db, model.LicenseRegular, 20)
	// Re-seeding a tier updates the single fee row; there is never a
	// second row for the same tier to make the lookup ambiguous.
	seedFee(t, db, model.LicenseRegular, 30)

	var count int64
	require.NoError(t, db.Model(&model.LicenseFee{}).
		Where("license = ?", model.LicenseRegular).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	items, _, err := newPricer(t, db).PriceCart(context.Background(), []*dto.CartEntry{
		{ProductID: product.ID, License: model.LicenseRegular, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), items[0].SellerCredit)
}
