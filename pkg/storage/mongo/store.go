// Package mongo provides a [storage.Store] backed by a MongoDB collection.
//
// All users share one collection. Each record carries its owner, its
// logical collection, its id and the document body as an embedded BSON
// document converted from the body's JSON.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// DefaultCollection is the MongoDB collection used when Config leaves it empty.
const DefaultCollection = "documents"

// Config configures the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // connect and ping timeout
}

type record struct {
	Key        string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Collection string    `bson:"collection"`
	DocID      string    `bson:"doc_id"`
	Order      int       `bson:"order"`
	Data       bson.Raw  `bson:"data"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// Store provides MongoDB-backed document persistence.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, pings and ensures the listing index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "collection", Value: 1}, {Key: "order", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

func recordKey(userID, collection, id string) string {
	return userID + "/" + collection + "/" + id
}

func (r record) document() (storage.Document, error) {
	data, err := bson.MarshalExtJSON(r.Data, false, false)
	if err != nil {
		return storage.Document{}, fmt.Errorf("convert %s to json: %w", r.DocID, err)
	}
	return storage.Document{ID: r.DocID, Order: r.Order, Data: data}, nil
}

func (s *Store) List(ctx context.Context, userID, collection string) ([]storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, ""); err != nil {
		return nil, err
	}

	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}, {Key: "collection", Value: collection}},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "doc_id", Value: 1}}),
	)
	if err != nil {
		return nil, classify(fmt.Errorf("find %s: %w", collection, err))
	}
	var records []record
	if err := cur.All(ctx, &records); err != nil {
		return nil, classify(fmt.Errorf("decode %s: %w", collection, err))
	}

	docs := make([]storage.Document, 0, len(records))
	for _, r := range records {
		d, err := r.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, userID, collection, id string) (storage.Document, error) {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return storage.Document{}, err
	}

	var r record
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: recordKey(userID, collection, id)}}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, classify(fmt.Errorf("get %s/%s: %w", collection, id, err))
	}
	return r.document()
}

func (s *Store) Put(ctx context.Context, userID, collection string, doc storage.Document) error {
	if err := storage.ValidateKey(userID, collection, doc.ID); err != nil {
		return err
	}

	var body bson.D
	if err := bson.UnmarshalExtJSON(doc.Data, false, &body); err != nil {
		return fmt.Errorf("convert %s to bson: %w", doc.ID, err)
	}
	key := recordKey(userID, collection, doc.ID)
	replacement := bson.D{
		{Key: "_id", Value: key},
		{Key: "user_id", Value: userID},
		{Key: "collection", Value: collection},
		{Key: "doc_id", Value: doc.ID},
		{Key: "order", Value: doc.Order},
		{Key: "data", Value: body},
		{Key: "updated_at", Value: time.Now().UTC()},
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return classify(fmt.Errorf("put %s/%s: %w", collection, doc.ID, err))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, collection, id string) error {
	if err := storage.ValidateKey(userID, collection, id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: recordKey(userID, collection, id)}}); err != nil {
		return classify(fmt.Errorf("delete %s/%s: %w", collection, id, err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// classify marks network errors and timeouts as retryable.
func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(err)
	}
	return err
}

var _ storage.Store = (*Store)(nil)
