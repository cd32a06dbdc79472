// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/models"
	"github.com/harvestdirect/backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"required,max=500"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	Category    string          `json:"category" validate:"required,max=50"`
	Unit        string          `json:"unit" validate:"required,max=20"`
	ImageURL    string          `json:"image_url,omitempty" validate:"omitempty,max=255"`
	Tags        []string        `json:"tags,omitempty"`
}

type UpdateProductRequest struct {
	Name        string           `json:"name,omitempty" validate:"omitempty,max=100"`
	Description string           `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Category    string           `json:"category,omitempty" validate:"omitempty,max=50"`
	Unit        string           `json:"unit,omitempty" validate:"omitempty,max=20"`
	ImageURL    string           `json:"image_url,omitempty" validate:"omitempty,max=255"`
	Tags        []string         `json:"tags,omitempty"`
	IsAvailable *bool            `json:"is_available,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SellerID      *uuid.UUID
	AvailableOnly bool
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Price.IsPositive() {
		return nil, errors.New("price must be greater than zero")
	}

	var seller models.User
	if err := s.db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !seller.IsSeller() {
		return nil, ErrUnauthorized
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		IsAvailable: req.Quantity > 0,
		SellerID:    sellerID,
	}
	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.db.Preload("Seller").First(product, "id = ?", product.ID)
	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// UpdateProduct applies seller edits. Availability can only be switched on
// while quantity is positive; a zero-quantity product stays unavailable
// until the fulfillment engine restores stock.
func (s *ProductService) UpdateProduct(id, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if product.SellerID != sellerID {
		return nil, ErrUnauthorized
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, errors.New("price must be greater than zero")
		}
		updates["price"] = *req.Price
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	quantity := product.Quantity
	if req.Quantity != nil {
		quantity = *req.Quantity
		updates["quantity"] = quantity
	}
	if quantity <= 0 {
		updates["is_available"] = false
	} else if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	} else if req.Quantity != nil && product.Quantity <= 0 {
		// Restocking an out-of-stock product makes it purchasable again.
		updates["is_available"] = true
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Seller").First(&product, "id = ?", id)
	return &product, nil
}

func (s *ProductService) DeleteProduct(id, sellerID uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if product.SellerID != sellerID {
		return ErrUnauthorized
	}

	// Soft delete keeps order history intact.
	if err := s.db.Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Seller")

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "quantity"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) GetSellerProducts(sellerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	return s.SearchProducts(ProductSearchParams{
		PaginationParams: params,
		SellerID:         &sellerID,
	})
}
