// Package cart is the per-user shopping cart. It checks stock when lines change but
// never reserves it; stock is only committed by checkout.
package cart

import (
	"context"
	"errors"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/shopspring/decimal"
)

type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

type ItemView struct {
	ProductID string                 `json:"productId"`
	Product   *models.ProductSummary `json:"product"`
	Quantity  int                    `json:"quantity"`
	Subtotal  decimal.Decimal        `json:"subtotal"`
}

// View is a cart with its lines resolved to current product data.
type View struct {
	ID     string          `json:"id,omitempty"`
	UserID string          `json:"user"`
	Items  []ItemView      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("Cart not found")
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrConflict):
		return apperrors.Conflict("Cart was modified concurrently, try again")
	default:
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Internal(err, "Error updating cart")
	}
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("Quantity must be at least 1")
	}
	return nil
}

// availableProduct loads an active product and checks it holds quantity units.
func availableProduct(ctx context.Context, s store.Catalog, productID string, quantity int) (*models.Product, error) {
	p, err := s.FindProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found or inactive")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "Error loading product")
	}
	if p.Stock < quantity {
		return nil, apperrors.InsufficientStock(p.Name, p.Stock, quantity)
	}
	return p, nil
}

// AddItem puts quantity units of a product in the cart, creating the cart on first use
// and adding to the line if the product is already there.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*View, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	productID, err := catalog.ParseID("productId", productID)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := availableProduct(ctx, tx, productID, quantity); err != nil {
			return err
		}
		c, err := tx.FindCart(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			c = &models.Cart{UserID: userID}
		} else if err != nil {
			return err
		}
		c.Add(productID, quantity)
		return tx.SaveCart(ctx, c)
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetCart(ctx, userID)
}

// GetCart returns the user's cart, or an empty one if none exists yet.
func (s *Service) GetCart(ctx context.Context, userID string) (*View, error) {
	c, err := s.store.FindCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &View{UserID: userID, Items: []ItemView{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return s.view(ctx, c)
}

func (s *Service) view(ctx context.Context, c *models.Cart) (*View, error) {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	products, err := s.store.ProductsByID(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err, "Error loading cart products")
	}

	v := &View{ID: c.ID, UserID: c.UserID, Items: make([]ItemView, 0, len(c.Items)), Total: decimal.Zero}
	for _, item := range c.Items {
		line := ItemView{ProductID: item.ProductID, Quantity: item.Quantity, Subtotal: decimal.Zero}
		if p, ok := products[item.ProductID]; ok {
			line.Product = p.Summary()
			if p.Lifecycle.IsActive() {
				line.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			}
		}
		v.Total = v.Total.Add(line.Subtotal)
		v.Items = append(v.Items, line)
	}
	return v, nil
}

// UpdateItem sets the quantity of a line already in the cart.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*View, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	productID, err := catalog.ParseID("productId", productID)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		c, err := tx.FindCart(ctx, userID)
		if err != nil {
			return err
		}
		if _, ok := c.Quantity(productID); !ok {
			return apperrors.NotFound("Product not found in cart")
		}
		if _, err := availableProduct(ctx, tx, productID, quantity); err != nil {
			return err
		}
		c.Set(productID, quantity)
		return tx.SaveCart(ctx, c)
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem drops a line. Removing a product that is not in the cart is not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*View, error) {
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		c, err := tx.FindCart(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !c.Remove(productID) {
			return nil
		}
		return tx.SaveCart(ctx, c)
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the cart but keeps it.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return translate(s.store.Atomic(ctx, func(tx store.Store) error {
		return clearCart(ctx, tx, userID)
	}))
}

func clearCart(ctx context.Context, tx store.Carts, userID string) error {
	c, err := tx.FindCart(ctx, userID)
	if err != nil {
		return err
	}
	c.Clear()
	return tx.SaveCart(ctx, c)
}
