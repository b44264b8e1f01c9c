package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vending/internal/model"
)

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id, sellerID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDAndSeller(ctx context.Context, id, sellerID uuid.UUID) (*model.Product, error)
	FindBySellerAndName(ctx context.Context, sellerID uuid.UUID, name string) (*model.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// List returns every product, oldest first.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update writes name, cost and stock. Ownership is checked by the caller.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND seller_id = ?", product.ID, product.SellerID).
		Updates(map[string]interface{}{
			"product_name":     product.ProductName,
			"cost":             product.Cost,
			"amount_available": product.AmountAvailable,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a product owned by sellerID.
func (r *productRepository) Delete(ctx context.Context, id, sellerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate finds a product by ID with a row-level lock.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDAndSeller(ctx context.Context, id, sellerID uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySellerAndName(ctx context.Context, sellerID uuid.UUID, name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND product_name = ?", sellerID, name).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock removes quantity units only if that many are available.
// It reports false when no row was changed.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND amount_available >= ?", id, quantity).
		Update("amount_available", gorm.Expr("amount_available - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
