// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/database"
	"github.com/harvestdirect/backend/internal/models"
	"github.com/harvestdirect/backend/internal/utils"
)

// OrderService is the fulfillment engine. It owns the Order/OrderItem
// write path and is the only code that mutates product inventory.
type OrderService struct {
	db          *gorm.DB
	cartService *CartService
}

type PlaceOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=255"`
}

func NewOrderService(db *gorm.DB, cartService *CartService) *OrderService {
	return &OrderService{db: db, cartService: cartService}
}

// PlaceOrder converts the buyer's cart into one order per distinct seller.
// Prices are captured and inventory decremented at commit time, all inside
// a single transaction: if any line fails validation, no order, item, or
// inventory change from this call is persisted and the cart is untouched.
// The cart is cleared only when every group commits.
func (s *OrderService) PlaceOrder(buyerID uuid.UUID, req *PlaceOrderRequest) ([]models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var orderIDs []uuid.UUID

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var cartItems []models.CartItem
		if err := tx.Where("user_id = ?", buyerID).Order("created_at").Find(&cartItems).Error; err != nil {
			return fmt.Errorf("failed to fetch cart items: %w", err)
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		// Re-read every product inside the transaction. Cart lines may be
		// stale: stock can have been consumed by a concurrent buyer since
		// the line was added.
		products := make(map[uuid.UUID]*models.Product, len(cartItems))
		for _, item := range cartItems {
			if _, ok := products[item.ProductID]; ok {
				continue
			}
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("database error: %w", err)
			}
			products[item.ProductID] = &product
		}

		// Group cart lines by seller. Seller order is sorted for
		// reproducible output.
		groups := make(map[uuid.UUID][]models.CartItem)
		for _, item := range cartItems {
			sellerID := products[item.ProductID].SellerID
			groups[sellerID] = append(groups[sellerID], item)
		}
		sellerIDs := make([]uuid.UUID, 0, len(groups))
		for sellerID := range groups {
			sellerIDs = append(sellerIDs, sellerID)
		}
		sort.Slice(sellerIDs, func(i, j int) bool {
			return sellerIDs[i].String() < sellerIDs[j].String()
		})

		for _, sellerID := range sellerIDs {
			lines := groups[sellerID]

			total := decimal.Zero
			for _, line := range lines {
				product := products[line.ProductID]
				total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			}

			order := models.Order{
				BuyerID:         buyerID,
				SellerID:        sellerID,
				TotalAmount:     total,
				DeliveryAddress: req.DeliveryAddress,
				PaymentStatus:   models.PaymentStatusPending,
				Status:          models.OrderStatusPending,
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			for _, line := range lines {
				product := products[line.ProductID]

				if !product.IsAvailable {
					return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
				}
				if product.Quantity < line.Quantity {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
				}

				orderItem := models.OrderItem{
					OrderID:   order.ID,
					ProductID: product.ID,
					Quantity:  line.Quantity,
					UnitPrice: product.Price,
					Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
				}
				if err := tx.Create(&orderItem).Error; err != nil {
					return fmt.Errorf("failed to create order item: %w", err)
				}

				if err := s.decrementStock(tx, product, line.Quantity); err != nil {
					return err
				}
			}

			orderIDs = append(orderIDs, order.ID)
		}

		// The cart is consumed only by a fully successful placement.
		if err := tx.Where("user_id = ?", buyerID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		var order models.Order
		if err := s.db.Preload("Items").Preload("Items.Product").Preload("Seller").
			First(&order, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to reload order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// decrementStock applies the validate-and-decrement as one guarded UPDATE.
// The quantity predicate in the WHERE clause serializes concurrent
// decrements at the row level: when two buyers race for the last units,
// exactly one UPDATE matches and the loser aborts the whole placement.
func (s *OrderService) decrementStock(tx *gorm.DB, product *models.Product, quantity int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND is_available = ? AND quantity >= ?", product.ID, true, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to update inventory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The caller's copy of the row predates the UPDATE, so re-read to
		// report the condition that actually blocked it: a concurrent
		// writer may have flipped availability rather than drained stock.
		var current models.Product
		if err := tx.Unscoped().First(&current, "id = ?", product.ID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if !current.IsAvailable {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, current.Name)
		}
		return fmt.Errorf("%w: %s", ErrInsufficientStock, current.Name)
	}

	if err := tx.Model(&models.Product{}).
		Where("id = ? AND quantity <= 0", product.ID).
		UpdateColumn("is_available", false).Error; err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	return nil
}

// UpdateOrderStatus drives the order state machine. Moving into CANCELLED
// restores every item's quantity onto its product and forces availability
// back on. CANCELLED is absorbing: re-cancelling an already cancelled
// order is a no-op, so inventory can never be credited twice.
func (s *OrderService) UpdateOrderStatus(orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	var order models.Order

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if newStatus == models.OrderStatusCancelled {
			if order.Status == models.OrderStatusCancelled {
				return nil
			}
			if err := s.restoreInventory(tx, order.ID); err != nil {
				return err
			}
		}

		order.Status = newStatus
		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// restoreInventory is the inverse of the placement decrement.
func (s *OrderService) restoreInventory(tx *gorm.DB, orderID uuid.UUID) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to fetch order items: %w", err)
	}

	for _, item := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumns(map[string]interface{}{
				"quantity":     gorm.Expr("quantity + ?", item.Quantity),
				"is_available": true,
			}).Error; err != nil {
			return fmt.Errorf("failed to restore inventory: %w", err)
		}
	}
	return nil
}

// UpdatePaymentStatus is a pure field update with no inventory side effect.
func (s *OrderService) UpdatePaymentStatus(orderID uuid.UUID, newStatus models.PaymentStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	order.PaymentStatus = newStatus
	if err := s.db.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("Items.Product").
		Preload("Buyer").Preload("Seller").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetOrdersByBuyer(buyerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Where("buyer_id = ?", buyerID).
		Preload("Items").Preload("Items.Product").Preload("Seller").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch buyer orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrdersBySeller(sellerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Where("seller_id = ?", sellerID).
		Preload("Items").Preload("Items.Product").Preload("Buyer").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch seller orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrderItems(orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.Where("order_id = ?", orderID).
		Preload("Product").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	return items, nil
}
