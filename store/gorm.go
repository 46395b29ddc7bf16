package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore is the relational backend (postgres in production, sqlite locally and in tests).
type GormStore struct {
	db *gorm.DB
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormStore(db), nil
}

func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewGormStore(db), nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Bill{},
		&models.BillLine{},
	)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func gormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// softDelete flips lifecycle on an active row of model.
func (s *GormStore) softDelete(ctx context.Context, model any, id string) error {
	res := s.with(ctx).Model(model).
		Where("id = ? AND lifecycle = ?", id, models.LifecycleActive).
		Updates(map[string]any{"lifecycle": models.LifecycleDeleted, "updated_at": time.Now()})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ───────────── Categories ─────────────

func (s *GormStore) CreateCategory(ctx context.Context, c *models.Category) error {
	ensureID(&c.ID)
	if c.Lifecycle == "" {
		c.Lifecycle = models.LifecycleActive
	}
	return gormErr(s.with(ctx).Create(c).Error)
}

func (s *GormStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := s.with(ctx).Model(&models.Category{}).
		Where("id = ? AND lifecycle = ?", c.ID, models.LifecycleActive).
		Updates(map[string]any{"name": c.Name, "description": c.Description, "updated_at": time.Now()})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := s.with(ctx).Where("id = ? AND lifecycle = ?", id, models.LifecycleActive).First(&c).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &c, nil
}

func (s *GormStore) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := s.with(ctx).Where("name = ? AND lifecycle = ?", name, models.LifecycleActive).First(&c).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &c, nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.with(ctx).Where("lifecycle = ?", models.LifecycleActive).Order("name").Find(&categories).Error
	return categories, gormErr(err)
}

func (s *GormStore) DeleteCategory(ctx context.Context, id string) error {
	return s.softDelete(ctx, &models.Category{}, id)
}

// ───────────── Products ─────────────

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	ensureID(&p.ID)
	if p.Lifecycle == "" {
		p.Lifecycle = models.LifecycleActive
	}
	return gormErr(s.with(ctx).Create(p).Error)
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := s.with(ctx).Model(&models.Product{}).
		Where("id = ? AND lifecycle = ?", p.ID, models.LifecycleActive).
		Updates(map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"category_id": p.CategoryID,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.with(ctx).Where("id = ? AND lifecycle = ?", id, models.LifecycleActive).First(&p).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &p, nil
}

var productSortColumns = map[string]string{
	SortByName:      "name",
	SortByPrice:     "price",
	SortByStock:     "stock",
	SortByCreatedAt: "created_at",
}

func (s *GormStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := s.with(ctx).Model(&models.Product{}).Where("lifecycle = ?", models.LifecycleActive)

	if f.CategoryID != "" {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.MaxStock != nil {
		query = query.Where("stock <= ?", *f.MaxStock)
	}

	column, ok := productSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	order := column + " ASC"
	if f.Desc {
		order = column + " DESC"
	}

	var products []models.Product
	err := query.Order(order).Order("id").Find(&products).Error
	return products, gormErr(err)
}

func (s *GormStore) ProductsByID(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := s.with(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, gormErr(err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, id string) error {
	return s.softDelete(ctx, &models.Product{}, id)
}

func (s *GormStore) AdjustStock(ctx context.Context, id string, delta int) error {
	query := s.with(ctx).Model(&models.Product{}).Where("id = ? AND stock + ? >= 0", id, delta)
	if delta < 0 {
		query = query.Where("lifecycle = ?", models.LifecycleActive)
	}
	res := query.Updates(map[string]any{
		"stock":      gorm.Expr("stock + ?", delta),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: tell a missing product apart from a short one.
	var p models.Product
	if err := s.with(ctx).Select("id", "stock", "lifecycle").Where("id = ?", id).First(&p).Error; err != nil {
		return gormErr(err)
	}
	if delta < 0 && !p.Lifecycle.IsActive() {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

func (s *GormStore) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	res := s.with(ctx).Model(&models.Product{}).
		Where("category_id = ?", from).
		Updates(map[string]any{"category_id": to, "updated_at": time.Now()})
	return res.RowsAffected, gormErr(res.Error)
}

// ───────────── Carts ─────────────

func (s *GormStore) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := s.with(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("user_id = ? AND lifecycle = ?", userID, models.LifecycleActive).
		First(&c).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &c, nil
}

// SaveCart writes the cart row and replaces its item rows.
func (s *GormStore) SaveCart(ctx context.Context, c *models.Cart) error {
	return s.with(ctx).Transaction(func(tx *gorm.DB) error {
		if c.Lifecycle == "" {
			c.Lifecycle = models.LifecycleActive
		}
		if c.ID == "" {
			c.ID = newID()
			if err := tx.Omit("Items").Create(c).Error; err != nil {
				return gormErr(err)
			}
		} else {
			c.UpdatedAt = time.Now()
			if err := tx.Model(&models.Cart{}).Where("id = ?", c.ID).
				Updates(map[string]any{"lifecycle": c.Lifecycle, "updated_at": c.UpdatedAt}).Error; err != nil {
				return gormErr(err)
			}
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartItem{}).Error; err != nil {
			return gormErr(err)
		}
		if len(c.Items) == 0 {
			return nil
		}
		for i := range c.Items {
			c.Items[i].ID = 0
			c.Items[i].CartID = c.ID
			c.Items[i].Position = i
		}
		return gormErr(tx.Create(&c.Items).Error)
	})
}

// ───────────── Bills ─────────────

func (s *GormStore) CreateBill(ctx context.Context, b *models.Bill) error {
	ensureID(&b.ID)
	if b.Lifecycle == "" {
		b.Lifecycle = models.LifecycleActive
	}
	if b.Status == "" {
		b.Status = models.BillStatusPending
	}
	for i := range b.Lines {
		b.Lines[i].BillID = b.ID
		b.Lines[i].Position = i
	}
	return gormErr(s.with(ctx).Create(b).Error)
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (s *GormStore) FindBill(ctx context.Context, id string) (*models.Bill, error) {
	var b models.Bill
	err := s.with(ctx).Preload("Lines", preloadLines).
		Where("id = ? AND lifecycle = ?", id, models.LifecycleActive).
		First(&b).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &b, nil
}

func (s *GormStore) ListBills(ctx context.Context, f BillFilter) ([]models.Bill, error) {
	query := s.with(ctx).Preload("Lines", preloadLines).Where("lifecycle = ?", models.LifecycleActive)
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if !f.CreatedBefore.IsZero() {
		query = query.Where("created_at < ?", f.CreatedBefore)
	}
	var bills []models.Bill
	err := query.Order("created_at DESC").Order("id").Find(&bills).Error
	return bills, gormErr(err)
}

func (s *GormStore) TransitionBill(ctx context.Context, id string, from, to models.BillStatus) error {
	res := s.with(ctx).Model(&models.Bill{}).
		Where("id = ? AND lifecycle = ? AND status = ?", id, models.LifecycleActive, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := s.FindBill(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s *GormStore) DeleteBill(ctx context.Context, id string) error {
	return s.softDelete(ctx, &models.Bill{}, id)
}

// ───────────── Users ─────────────

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	ensureID(&u.ID)
	if u.Lifecycle == "" {
		u.Lifecycle = models.LifecycleActive
	}
	return gormErr(s.with(ctx).Create(u).Error)
}

func (s *GormStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.with(ctx).Where("id = ? AND lifecycle = ?", id, models.LifecycleActive).First(&u).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &u, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.with(ctx).Where("username = ? AND lifecycle = ?", username, models.LifecycleActive).First(&u).Error
	if err != nil {
		return nil, gormErr(err)
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.with(ctx).Where("lifecycle = ?", models.LifecycleActive).Order("created_at DESC").Find(&users).Error
	return users, gormErr(err)
}

func (s *GormStore) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.with(ctx).Model(&models.User{}).
		Where("id = ? AND lifecycle = ?", u.ID, models.LifecycleActive).
		Updates(map[string]any{
			"name":          u.Name,
			"surname":       u.Surname,
			"email":         u.Email,
			"phone":         u.Phone,
			"role":          u.Role,
			"password_hash": u.PasswordHash,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	return s.softDelete(ctx, &models.User{}, id)
}
