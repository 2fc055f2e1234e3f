package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"gorm.io/gorm"
)

// PricingService turns cart entries into priced order line items. Pure:
// it resolves products and fees but mutates nothing; seller credit is
// applied later, only after the buyer's payment is confirmed.
type PricingService interface {
	// PriceCart returns unpersisted line items (OrderID unset) and the
	// buyer-facing order total in cents.
	PriceCart(ctx context.Context, entries []*dto.CartEntry) ([]*model.OrderItem, int64, error)
}

type pricingServiceImpl struct {
	productRepo repository.ProductRepository
	feeRepo     repository.FeeRepository
}

func NewPricingService(productRepo repository.ProductRepository, feeRepo repository.FeeRepository) PricingService {
	return &pricingServiceImpl{
		productRepo: productRepo,
		feeRepo:     feeRepo,
	}
}

func (s *pricingServiceImpl) PriceCart(ctx context.Context, entries []*dto.CartEntry) ([]*model.OrderItem, int64, error) {
	if len(entries) == 0 {
		return nil, 0, apperr.Validation("items", "cart must not be empty")
	}

	productIDs := make([]int64, len(entries))
	for i, entry := range entries {
		if entry.License != model.LicenseRegular && entry.License != model.LicenseExtended {
			return nil, 0, apperr.Validation("license", fmt.Sprintf("unknown license tier %q", entry.License))
		}
		if entry.Quantity < 1 {
			return nil, 0, apperr.Validation("quantity", "quantity must be at least 1")
		}
		productIDs[i] = entry.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("get products by cart entries: %w", err)
	}

	productMap := make(map[int64]*model.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	feeCache := make(map[string]int64, 2)

	items := make([]*model.OrderItem, len(entries))
	total := int64(0)
	for i, entry := range entries {
		product, ok := productMap[entry.ProductID]
		if !ok {
			return nil, 0, apperr.New(apperr.KindNotFound, fmt.Sprintf("product %d not found", entry.ProductID))
		}

		actualPrice := product.StandardPrice
		if entry.License == model.LicenseExtended {
			actualPrice = product.ExtendedPrice
		}

		fee, ok := feeCache[entry.License]
		if !ok {
			fee, err = s.lookupFee(ctx, entry.License)
			if err != nil {
				return nil, 0, err
			}
			feeCache[entry.License] = fee
		}

		// The platform fee is charged once per line item, not per
		// unit. Quantity scales only the buyer-facing total.
		sellerCredit := actualPrice - fee

		mainPrice := actualPrice * entry.Quantity
		lineTotal := mainPrice
		if product.DiscountPercentage > 0 {
			// Discount affects the buyer total only; seller credit is
			// computed off the undiscounted price.
			lineTotal = mainPrice * (100 - product.DiscountPercentage) / 100
		}

		items[i] = &model.OrderItem{
			ID:           ids.Next(),
			ProductID:    product.ID,
			SellerID:     product.SellerID,
			License:      entry.License,
			Quantity:     entry.Quantity,
			UnitPrice:    actualPrice,
			SellerCredit: sellerCredit,
			LineTotal:    lineTotal,
		}
		total += lineTotal
	}

	return items, total, nil
}

func (s *pricingServiceImpl) lookupFee(ctx context.Context, license string) (int64, error) {
	fee, err := s.feeRepo.Get(ctx, license)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Pricing must not proceed with an implicit zero fee.
			return 0, apperr.New(apperr.KindFeeNotConfigured,
				fmt.Sprintf("no platform fee configured for %s license", license))
		}
		return 0, fmt.Errorf("lookup %s license fee: %w", license, err)
	}

	return fee.Amount, nil
}
