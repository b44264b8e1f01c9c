package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"vending/internal/cache"
	apperrors "vending/internal/errors"
	"vending/internal/model"
	"vending/internal/repository"
)

// ProductService manages seller inventory. Every mutation is scoped to the
// owning seller.
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, sellerID uuid.UUID, name string, cost, amountAvailable int64) (*model.Product, error)
	Update(ctx context.Context, productID, sellerID uuid.UUID, name string, cost, amountAvailable int64) (*model.Product, error)
	Delete(ctx context.Context, productID, sellerID uuid.UUID) error
}

type productService struct {
	repo  repository.ProductRepository
	cache *cache.Client
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, cache *cache.Client) ProductService {
	return &productService{repo: repo, cache: cache}
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	var cached []model.Product
	if s.cache.GetJSON(ctx, productListCacheKey, &cached) {
		return cached, nil
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	s.cache.SetJSON(ctx, productListCacheKey, products, productListCacheTTL)
	return products, nil
}

func (s *productService) Get(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, productLookupError(err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, sellerID uuid.UUID, name string, cost, amountAvailable int64) (*model.Product, error) {
	if err := validateProduct(cost, amountAvailable, 1); err != nil {
		return nil, err
	}

	_, err := s.repo.FindBySellerAndName(ctx, sellerID, name)
	if err == nil {
		return nil, apperrors.ErrDuplicateProductName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check product name: %w", err)
	}

	product := &model.Product{
		SellerID:        sellerID,
		ProductName:     name,
		Cost:            cost,
		AmountAvailable: amountAvailable,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateProductName
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	_ = s.cache.Delete(ctx, productListCacheKey)

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"seller_id":  sellerID,
	}).Info("product created")
	return product, nil
}

// Update replaces name, cost and stock of a product the seller owns. The
// ownership lookup and the name-conflict lookup run concurrently.
func (s *productService) Update(ctx context.Context, productID, sellerID uuid.UUID, name string, cost, amountAvailable int64) (*model.Product, error) {
	if err := validateProduct(cost, amountAvailable, 0); err != nil {
		return nil, err
	}

	var product, sameName *model.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.FindByIDAndSeller(gctx, productID, sellerID)
		if err != nil {
			return productLookupError(err)
		}
		product = p
		return nil
	})
	g.Go(func() error {
		p, err := s.repo.FindBySellerAndName(gctx, sellerID, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("check product name: %w", err)
		}
		sameName = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sameName != nil && sameName.ID != product.ID {
		return nil, apperrors.ErrDuplicateProductName
	}

	product.ProductName = name
	product.Cost = cost
	product.AmountAvailable = amountAvailable
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateProductName
		}
		return nil, productLookupError(err)
	}
	_ = s.cache.Delete(ctx, productListCacheKey)

	return product, nil
}

func (s *productService) Delete(ctx context.Context, productID, sellerID uuid.UUID) error {
	if err := s.repo.Delete(ctx, productID, sellerID); err != nil {
		return productLookupError(err)
	}
	_ = s.cache.Delete(ctx, productListCacheKey)

	logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"seller_id":  sellerID,
	}).Info("product deleted")
	return nil
}

// validateProduct checks cost is a positive coin multiple and stock is not
// below minStock.
func validateProduct(cost, amountAvailable, minStock int64) error {
	switch {
	case cost < 5:
		return apperrors.NewValidationError("Product cost can not be less than 5")
	case cost > 100:
		return apperrors.NewValidationError("Product cost can not be more than 100")
	case cost%5 != 0:
		return apperrors.NewValidationError("Product cost must be multiple of 5")
	case amountAvailable < minStock:
		return apperrors.NewValidationError(fmt.Sprintf("Product quantity can not be less than %d", minStock))
	}
	return nil
}

func productLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrProductNotFound
	}
	return fmt.Errorf("find product: %w", err)
}
