package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"catalog/internal/models"
	"catalog/internal/pkg/clock"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const productsCollection = "products"

// productDocument is the BSON shape of a product.
type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	InStock     bool               `bson:"inStock"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDocument) toModel() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		InStock:     d.InStock,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoOptions configures the MongoDB client pool.
type MongoOptions struct {
	URI                    string
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	MinPoolSize            uint64
	MaxPoolSize            uint64
}

// DefaultMongoOptions returns the pool settings used in production.
func DefaultMongoOptions(uri string) MongoOptions {
	return MongoOptions{
		URI:                    uri,
		ServerSelectionTimeout: 5 * time.Second,
		SocketTimeout:          45 * time.Second,
		MinPoolSize:            5,
		MaxPoolSize:            10,
	}
}

// NewMongoClient connects to MongoDB and verifies the connection with a ping.
func NewMongoClient(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout).
		SetSocketTimeout(opts.SocketTimeout).
		SetMinPoolSize(opts.MinPoolSize).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
type MongoProductRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	clock  clock.Clock
}

// NewMongoProductRepository creates a repository over the products collection of database.
func NewMongoProductRepository(client *mongo.Client, database string, clk clock.Clock) *MongoProductRepository {
	return &MongoProductRepository{
		client: client,
		coll:   client.Database(database).Collection(productsCollection),
		clock:  clk,
	}
}

// EnsureIndexes creates the text index on name/description and the createdAt sort index.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// containsRegex matches term literally anywhere in the field, ignoring case.
func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// mongoFilter translates f into a query document.
func mongoFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = containsRegex(f.Category)
	}
	if f.InStock != nil {
		filter["inStock"] = *f.InStock
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": containsRegex(f.Search)},
			bson.M{"description": containsRegex(f.Search)},
		}
	}
	return filter
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]models.Product, error) {
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

// Find returns one page of matching products, newest first.
func (r *MongoProductRepository) Find(ctx context.Context, q models.ListQuery) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	cur, err := r.coll.Find(ctx, mongoFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Count returns the number of matching products.
func (r *MongoProductRepository) Count(ctx context.Context, f models.ProductFilter) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// SearchByName returns up to limit products whose name contains term.
func (r *MongoProductRepository) SearchByName(ctx context.Context, term string, limit int) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{"name": containsRegex(term)}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	return decodeAll(ctx, cur)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// decodeSingle maps ErrNoDocuments to ErrProductNotFound.
func decodeSingle(res *mongo.SingleResult, id string) (*models.Product, error) {
	var doc productDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	product := doc.toModel()
	return &product, nil
}

// GetByID retrieves a single product by its ObjectID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return decodeSingle(r.coll.FindOne(ctx, bson.M{"_id": oid}), id)
}

// Create inserts a new product document.
func (r *MongoProductRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	// BSON dates carry millisecond precision.
	now := r.clock.Now().Truncate(time.Millisecond)
	oid := primitive.NewObjectID()
	product := models.Product{
		ID:        oid.Hex(),
		InStock:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(&product)

	doc := productDocument{
		ID:          oid,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		InStock:     product.InStock,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to insert product: %w", ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return &product, nil
}

// Update sets the supplied fields and returns the document after the update.
func (r *MongoProductRepository) Update(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"name":        input.Name,
		"description": input.Description,
		"price":       input.Price,
		"category":    input.Category,
		"updatedAt":   r.clock.Now().Truncate(time.Millisecond),
	}
	if input.InStock != nil {
		set["inStock"] = *input.InStock
	}

	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Err(); mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to update product: %w", ErrDuplicateKey)
	}
	return decodeSingle(res, id)
}

// Delete removes a product and returns the deleted document.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return decodeSingle(r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}), id)
}

// inStockAsInt evaluates to 1 for in-stock documents and 0 otherwise.
var inStockAsInt = bson.M{"$cond": bson.A{"$inStock", 1, 0}}

func categoryStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$category",
			"count":        bson.M{"$sum": 1},
			"avgPrice":     bson.M{"$avg": "$price"},
			"minPrice":     bson.M{"$min": "$price"},
			"maxPrice":     bson.M{"$max": "$price"},
			"inStockCount": bson.M{"$sum": inStockAsInt},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"category":        "$_id",
			"count":           1,
			"avgPrice":        bson.M{"$round": bson.A{"$avgPrice", 2}},
			"minPrice":        1,
			"maxPrice":        1,
			"inStockCount":    1,
			"outOfStockCount": bson.M{"$subtract": bson.A{"$count", "$inStockCount"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "category", Value: 1}}}},
	}
}

func summaryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalProducts": bson.M{"$sum": 1},
			"totalInStock":  bson.M{"$sum": inStockAsInt},
			"avgPriceAll":   bson.M{"$avg": "$price"},
		}}},
	}
}

type categoryStatsDocument struct {
	Category        string  `bson:"category"`
	Count           int64   `bson:"count"`
	AvgPrice        float64 `bson:"avgPrice"`
	MinPrice        float64 `bson:"minPrice"`
	MaxPrice        float64 `bson:"maxPrice"`
	InStockCount    int64   `bson:"inStockCount"`
	OutOfStockCount int64   `bson:"outOfStockCount"`
}

type summaryDocument struct {
	TotalProducts int64   `bson:"totalProducts"`
	TotalInStock  int64   `bson:"totalInStock"`
	AvgPriceAll   float64 `bson:"avgPriceAll"`
}

// Stats runs the per-category and overall aggregation pipelines.
func (r *MongoProductRepository) Stats(ctx context.Context) (*models.ProductStats, error) {
	cur, err := r.coll.Aggregate(ctx, categoryStatsPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category stats: %w", err)
	}
	var groups []categoryStatsDocument
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode category stats: %w", err)
	}

	cur, err = r.coll.Aggregate(ctx, summaryPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate summary stats: %w", err)
	}
	var totals []summaryDocument
	if err := cur.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode summary stats: %w", err)
	}

	var summary models.StatsSummary
	if len(totals) > 0 {
		summary = models.StatsSummary(totals[0])
	}
	byCategory := make([]models.CategoryStats, 0, len(groups))
	for _, g := range groups {
		byCategory = append(byCategory, models.CategoryStats(g))
	}
	return newProductStats(summary, byCategory), nil
}

// Ping checks the connection to the primary.
func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
