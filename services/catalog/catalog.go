// Package catalog manages categories and products. Stock only changes through
// AdjustStock, which delegates to the store's conditional update.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/shopspring/decimal"
)

type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  string
}

// ParseID rejects anything that is not a UUID.
func ParseID(field, value string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", apperrors.InvalidReference(field, value)
	}
	return id.String(), nil
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict("%s with that name already exists", what)
	case errors.Is(err, store.ErrInsufficientStock):
		return apperrors.New(apperrors.KindInsufficientStock, "Not enough stock for %s", what)
	default:
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Internal(err, "Error processing %s", strings.ToLower(what))
	}
}

// ───────────── Categories ─────────────

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, "Category")
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	id, err := ParseID("category id", id)
	if err != nil {
		return nil, err
	}
	current, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "Category")
	}
	name := strings.TrimSpace(in.Name)
	if current.Name == models.FallbackCategoryName && name != current.Name {
		return nil, apperrors.Conflict("The %s category cannot be renamed", models.FallbackCategoryName)
	}
	current.Name = name
	current.Description = strings.TrimSpace(in.Description)
	if err := s.store.UpdateCategory(ctx, current); err != nil {
		return nil, translate(err, "Category")
	}
	return s.GetCategory(ctx, id)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	id, err := ParseID("category id", id)
	if err != nil {
		return nil, err
	}
	c, err := s.store.FindCategory(ctx, id)
	return c, translate(err, "Category")
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	return categories, translate(err, "Categories")
}

// DeleteCategory moves the category's products to the fallback category, creating it on
// first use, then soft-deletes the category. It returns how many products were moved.
func (s *Service) DeleteCategory(ctx context.Context, id string) (int64, error) {
	id, err := ParseID("category id", id)
	if err != nil {
		return 0, err
	}

	var moved int64
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		category, err := tx.FindCategory(ctx, id)
		if err != nil {
			return err
		}
		if category.Name == models.FallbackCategoryName {
			return apperrors.Conflict("The %s category cannot be deleted", models.FallbackCategoryName)
		}

		fallback, err := fallbackCategory(ctx, tx)
		if err != nil {
			return err
		}
		if moved, err = tx.ReassignCategory(ctx, category.ID, fallback.ID); err != nil {
			return err
		}
		return tx.DeleteCategory(ctx, category.ID)
	})
	if err != nil {
		return 0, translate(err, "Category")
	}

	logging.Log(logging.Fields{Service: "catalog", Step: "delete_category", Status: "ok", Message: id})
	return moved, nil
}

func fallbackCategory(ctx context.Context, tx store.Store) (*models.Category, error) {
	c, err := tx.FindCategoryByName(ctx, models.FallbackCategoryName)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	c = &models.Category{Name: models.FallbackCategoryName, Description: models.FallbackCategoryDescription}
	if err := tx.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ───────────── Products ─────────────

func (s *Service) activeCategory(ctx context.Context, id string) (string, error) {
	id, err := ParseID("category", id)
	if err != nil {
		return "", err
	}
	if _, err := s.store.FindCategory(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperrors.NotFound("Category not found or inactive")
		}
		return "", translate(err, "Category")
	}
	return id, nil
}

func validateProduct(in ProductInput) error {
	if in.Price.IsNegative() {
		return apperrors.Validation("Price must be a positive number")
	}
	if in.Stock < 0 {
		return apperrors.Validation("Stock must be a positive integer")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	categoryID, err := s.activeCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  categoryID,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, translate(err, "Product")
	}
	return p, nil
}

// ProductPatch holds the fields an update may change. Nil fields are kept.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *string
}

// UpdateProduct changes the descriptive fields and the category. Stock is left alone.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	id, err := ParseID("product id", id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "Product")
	}
	if patch.CategoryID != nil {
		if p.CategoryID, err = s.activeCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, apperrors.Validation("Price must be a positive number")
		}
		p.Price = *patch.Price
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, translate(err, "Product")
	}
	updated, err := s.store.FindProduct(ctx, id)
	return updated, translate(err, "Product")
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	id, err := ParseID("product id", id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindProduct(ctx, id)
	return p, translate(err, "Product")
}

func (s *Service) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	if f.CategoryID != "" {
		id, err := ParseID("category", f.CategoryID)
		if err != nil {
			return nil, err
		}
		f.CategoryID = id
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperrors.Validation("min_price must not exceed max_price")
	}
	products, err := s.store.ListProducts(ctx, f)
	return products, translate(err, "Products")
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id, err := ParseID("product id", id)
	if err != nil {
		return err
	}
	return translate(s.store.DeleteProduct(ctx, id), "Product")
}

// AdjustStock applies an admin restock or correction. The result never goes below zero.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	id, err := ParseID("product id", id)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, apperrors.Validation("Stock delta must not be zero")
	}
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "Product")
	}
	if err := s.store.AdjustStock(ctx, id, delta); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return nil, apperrors.InsufficientStock(p.Name, p.Stock, -delta)
		}
		return nil, translate(err, "Product")
	}
	logging.Log(logging.Fields{Service: "catalog", Step: "adjust_stock", Status: "ok", ProductID: id, Message: fmt.Sprintf("delta %+d", delta)})
	adjusted, err := s.store.FindProduct(ctx, id)
	return adjusted, translate(err, "Product")
}

// LowStock lists active products whose stock is at or below threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	return s.ListProducts(ctx, store.ProductFilter{MaxStock: &threshold, SortBy: store.SortByStock})
}
