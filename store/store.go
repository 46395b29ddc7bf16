// Package store holds the persistence contracts and their gorm and mongo backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("store: record not found")
	ErrInsufficientStock = errors.New("store: insufficient stock")
	ErrDuplicate         = errors.New("store: duplicate key")
	ErrConflict          = errors.New("store: concurrent modification")
)

// Sort keys accepted by ProductFilter.SortBy.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByStock     = "stock"
	SortByCreatedAt = "createdAt"
)

type ProductFilter struct {
	CategoryID string
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Desc       bool
	MaxStock   *int
}

type BillFilter struct {
	UserID        string
	Status        models.BillStatus
	CreatedBefore time.Time
}

// Catalog owns products and categories. AdjustStock is the only path that changes a
// product's stock after creation.
type Catalog interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	FindCategory(ctx context.Context, id string) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
	ProductsByID(ctx context.Context, ids []string) (map[string]*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// AdjustStock adds delta to the product's stock in one conditional write. A negative
	// delta requires an active product holding at least -delta units.
	AdjustStock(ctx context.Context, id string, delta int) error
	// ReassignCategory points every product of category from at category to.
	ReassignCategory(ctx context.Context, from, to string) (int64, error)
}

type Carts interface {
	FindCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, c *models.Cart) error
}

type Bills interface {
	CreateBill(ctx context.Context, b *models.Bill) error
	FindBill(ctx context.Context, id string) (*models.Bill, error)
	ListBills(ctx context.Context, f BillFilter) ([]models.Bill, error)
	// TransitionBill moves an active bill from one status to another, failing with
	// ErrConflict if the stored status is no longer from.
	TransitionBill(ctx context.Context, id string, from, to models.BillStatus) error
	DeleteBill(ctx context.Context, id string) error
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Store is the full persistence surface. Atomic runs fn against a store whose writes
// either all take effect or none do.
type Store interface {
	Catalog
	Carts
	Bills
	Users
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Close() error
}

func newID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = newID()
	}
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MongoStore)(nil)
)
