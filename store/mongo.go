package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collCategories = "categories"
	collProducts   = "products"
	collCarts      = "carts"
	collBills      = "bills"
	collUsers      = "users"
)

// MongoStore is the document backend. Atomic does not need a replica set: writes made
// inside it are journaled and compensated in reverse order when the unit fails.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	journal *journal
}

type journal struct {
	mu   sync.Mutex
	undo []func(context.Context) error
}

func (j *journal) record(fn func(context.Context) error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(NewMongoRegistry()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique indexes the gorm backend gets from its tags.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	specs := map[string][]mongo.IndexModel{
		collCategories: {unique(bson.D{{Key: "name", Value: 1}})},
		collProducts: {
			unique(bson.D{{Key: "name", Value: 1}}),
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collCarts: {unique(bson.D{{Key: "user", Value: 1}})},
		collBills: {{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}}},
		collUsers: {
			unique(bson.D{{Key: "username", Value: 1}}),
			unique(bson.D{{Key: "email", Value: 1}}),
		},
	}
	for coll, idx := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.journal != nil {
		return fn(s)
	}
	unit := &MongoStore{client: s.client, db: s.db, journal: &journal{}}
	if err := fn(unit); err != nil {
		if rbErr := unit.journal.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Printf("❌ mongo compensation failed: %v", rbErr)
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

func (s *MongoStore) remember(fn func(context.Context) error) {
	if s.journal != nil {
		s.journal.record(fn)
	}
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func active(filter bson.M) bson.M {
	filter["lifecycle"] = models.LifecycleActive
	return filter
}

func (s *MongoStore) findOne(ctx context.Context, coll string, filter bson.M, out any) error {
	return mongoErr(s.coll(coll).FindOne(ctx, filter).Decode(out))
}

// updateActive sets fields on an active document. Inside Atomic the previous values
// are journaled so a failed unit puts them back.
func (s *MongoStore) updateActive(ctx context.Context, coll, id string, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	projection := bson.M{}
	for field := range set {
		projection[field] = 1
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(projection)

	var previous bson.M
	err := s.coll(coll).FindOneAndUpdate(ctx, active(bson.M{"_id": id}), bson.M{"$set": set}, opts).Decode(&previous)
	if err != nil {
		return mongoErr(err)
	}

	s.remember(func(ctx context.Context) error {
		return s.restore(ctx, coll, id, set, previous)
	})
	return nil
}

// restore puts back the fields an update overwrote and drops the ones it added.
func (s *MongoStore) restore(ctx context.Context, coll, id string, set, previous bson.M) error {
	restoreSet, unset := bson.M{}, bson.M{}
	for field := range set {
		if v, ok := previous[field]; ok {
			restoreSet[field] = v
		} else {
			unset[field] = ""
		}
	}
	update := bson.M{}
	if len(restoreSet) > 0 {
		update["$set"] = restoreSet
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := s.coll(coll).UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *MongoStore) softDelete(ctx context.Context, coll, id string) error {
	return s.updateActive(ctx, coll, id, bson.M{"lifecycle": models.LifecycleDeleted})
}

func (s *MongoStore) insert(ctx context.Context, coll, id string, doc any) error {
	if _, err := s.coll(coll).InsertOne(ctx, doc); err != nil {
		return mongoErr(err)
	}
	s.remember(func(ctx context.Context) error {
		_, err := s.coll(coll).DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	return nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ───────────── Categories ─────────────

func (s *MongoStore) CreateCategory(ctx context.Context, c *models.Category) error {
	ensureID(&c.ID)
	if c.Lifecycle == "" {
		c.Lifecycle = models.LifecycleActive
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	return s.insert(ctx, collCategories, c.ID, c)
}

func (s *MongoStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.updateActive(ctx, collCategories, c.ID, bson.M{"name": c.Name, "description": c.Description})
}

func (s *MongoStore) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.findOne(ctx, collCategories, active(bson.M{"_id": id}), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := s.findOne(ctx, collCategories, active(bson.M{"name": name}), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cur, err := s.coll(collCategories).Find(ctx, active(bson.M{}), options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mongoErr(err)
	}
	categories := make([]models.Category, 0)
	return categories, mongoErr(cur.All(ctx, &categories))
}

func (s *MongoStore) DeleteCategory(ctx context.Context, id string) error {
	return s.softDelete(ctx, collCategories, id)
}

// ───────────── Products ─────────────

func (s *MongoStore) CreateProduct(ctx context.Context, p *models.Product) error {
	ensureID(&p.ID)
	if p.Lifecycle == "" {
		p.Lifecycle = models.LifecycleActive
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	return s.insert(ctx, collProducts, p.ID, p)
}

func (s *MongoStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.updateActive(ctx, collProducts, p.ID, bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.CategoryID,
	})
}

func (s *MongoStore) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.findOne(ctx, collProducts, active(bson.M{"_id": id}), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

var productSortFields = map[string]string{
	SortByName:      "name",
	SortByPrice:     "price",
	SortByStock:     "stock",
	SortByCreatedAt: "createdAt",
}

func productQuery(f ProductFilter) (bson.M, bson.D) {
	filter := active(bson.M{})
	if f.CategoryID != "" {
		filter["category"] = f.CategoryID
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"description": re}}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.MaxStock != nil {
		filter["stock"] = bson.M{"$lte": *f.MaxStock}
	}

	field, ok := productSortFields[f.SortBy]
	if !ok {
		field = "createdAt"
	}
	dir := 1
	if f.Desc {
		dir = -1
	}
	return filter, bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

func (s *MongoStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	filter, sort := productQuery(f)
	cur, err := s.coll(collProducts).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, mongoErr(err)
	}
	products := make([]models.Product, 0)
	return products, mongoErr(cur.All(ctx, &products))
}

func (s *MongoStore) ProductsByID(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.coll(collProducts).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mongoErr(err)
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, mongoErr(err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) error {
	return s.softDelete(ctx, collProducts, id)
}

func (s *MongoStore) AdjustStock(ctx context.Context, id string, delta int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": -delta}}
	if delta < 0 {
		active(filter)
	}
	res, err := s.coll(collProducts).UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 1 {
		s.remember(func(ctx context.Context) error {
			_, err := s.coll(collProducts).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock": -delta}})
			return err
		})
		return nil
	}

	var p models.Product
	if err := s.findOne(ctx, collProducts, bson.M{"_id": id}, &p); err != nil {
		return err
	}
	if delta < 0 && !p.Lifecycle.IsActive() {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

func (s *MongoStore) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	cur, err := s.coll(collProducts).Find(ctx, bson.M{"category": from}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, mongoErr(err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return 0, mongoErr(err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	res, err := s.coll(collProducts).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"category": to, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return 0, mongoErr(err)
	}
	s.remember(func(ctx context.Context) error {
		_, err := s.coll(collProducts).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"category": from}})
		return err
	})
	return res.ModifiedCount, nil
}

// ───────────── Carts ─────────────

func (s *MongoStore) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	if err := s.findOne(ctx, collCarts, active(bson.M{"user": userID}), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, c *models.Cart) error {
	if c.Lifecycle == "" {
		c.Lifecycle = models.LifecycleActive
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	if c.ID == "" {
		c.ID = newID()
		stamp(&c.CreatedAt, &c.UpdatedAt)
		return s.insert(ctx, collCarts, c.ID, c)
	}

	var previous models.Cart
	if err := s.findOne(ctx, collCarts, bson.M{"_id": c.ID}, &previous); err != nil {
		return err
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	if _, err := s.coll(collCarts).ReplaceOne(ctx, bson.M{"_id": c.ID}, c); err != nil {
		return mongoErr(err)
	}
	s.remember(func(ctx context.Context) error {
		_, err := s.coll(collCarts).ReplaceOne(ctx, bson.M{"_id": previous.ID}, previous)
		return err
	})
	return nil
}

// ───────────── Bills ─────────────

func (s *MongoStore) CreateBill(ctx context.Context, b *models.Bill) error {
	ensureID(&b.ID)
	if b.Lifecycle == "" {
		b.Lifecycle = models.LifecycleActive
	}
	if b.Status == "" {
		b.Status = models.BillStatusPending
	}
	if b.Lines == nil {
		b.Lines = []models.BillLine{}
	}
	stamp(&b.CreatedAt, &b.UpdatedAt)
	return s.insert(ctx, collBills, b.ID, b)
}

func (s *MongoStore) FindBill(ctx context.Context, id string) (*models.Bill, error) {
	var b models.Bill
	if err := s.findOne(ctx, collBills, active(bson.M{"_id": id}), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MongoStore) ListBills(ctx context.Context, f BillFilter) ([]models.Bill, error) {
	filter := active(bson.M{})
	if f.UserID != "" {
		filter["user"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.CreatedBefore.IsZero() {
		filter["createdAt"] = bson.M{"$lt": f.CreatedBefore}
	}
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := s.coll(collBills).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, mongoErr(err)
	}
	bills := make([]models.Bill, 0)
	return bills, mongoErr(cur.All(ctx, &bills))
}

func (s *MongoStore) TransitionBill(ctx context.Context, id string, from, to models.BillStatus) error {
	res, err := s.coll(collBills).UpdateOne(ctx, active(bson.M{"_id": id, "status": from}),
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 1 {
		s.remember(func(ctx context.Context) error {
			_, err := s.coll(collBills).UpdateOne(ctx, bson.M{"_id": id, "status": to}, bson.M{"$set": bson.M{"status": from}})
			return err
		})
		return nil
	}
	if _, err := s.FindBill(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s *MongoStore) DeleteBill(ctx context.Context, id string) error {
	return s.softDelete(ctx, collBills, id)
}

// ───────────── Users ─────────────

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	ensureID(&u.ID)
	if u.Lifecycle == "" {
		u.Lifecycle = models.LifecycleActive
	}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	return s.insert(ctx, collUsers, u.ID, u)
}

func (s *MongoStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, collUsers, active(bson.M{"_id": id}), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, collUsers, active(bson.M{"username": username}), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.coll(collUsers).Find(ctx, active(bson.M{}), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mongoErr(err)
	}
	users := make([]models.User, 0)
	return users, mongoErr(cur.All(ctx, &users))
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	return s.updateActive(ctx, collUsers, u.ID, bson.M{
		"name":     u.Name,
		"surname":  u.Surname,
		"email":    u.Email,
		"phone":    u.Phone,
		"role":     u.Role,
		"password": u.PasswordHash,
	})
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	return s.softDelete(ctx, collUsers, id)
}
