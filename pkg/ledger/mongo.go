package ledger

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "handwrite"
	DefaultMongoCollection = "ledger"
)

// MongoStore keeps a ledger in a MongoDB collection, one document per path.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Path        string    `bson:"_id"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// NewMongoStore connects to uri and uses the given database and collection.
// Empty names select the defaults.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Load implements [Store].
func (s *MongoStore) Load(ctx context.Context) (*Ledger, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find ledger entries: %w", err)
	}
	var docs []mongoEntry
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode ledger entries: %w", err)
	}
	return fromMongo(docs), nil
}

// Save implements [Store]. Entries are upserted and documents for paths no
// longer in l are removed.
func (s *MongoStore) Save(ctx context.Context, l *Ledger) error {
	docs := toMongo(l)
	if len(docs) > 0 {
		models := make([]mongo.WriteModel, 0, len(docs))
		for _, d := range docs {
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.D{{Key: "_id", Value: d.Path}}).
				SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "processed_at", Value: d.ProcessedAt}}}}).
				SetUpsert(true))
		}
		if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("write ledger entries: %w", err)
		}
	}

	keep := l.Paths()
	if keep == nil {
		keep = []string{}
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: keep}}}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("prune ledger entries: %w", err)
	}
	return nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toMongo(l *Ledger) []mongoEntry {
	entries := l.Entries()
	docs := make([]mongoEntry, 0, len(entries))
	for _, path := range l.Paths() {
		docs = append(docs, mongoEntry{Path: path, ProcessedAt: entries[path].UTC()})
	}
	return docs
}

func fromMongo(docs []mongoEntry) *Ledger {
	l := New()
	for _, d := range docs {
		l.entries[d.Path] = d.ProcessedAt
	}
	return l
}

var _ Store = (*MongoStore)(nil)
