package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

const (
	messagesCollection = "messages"
	pendingCollection  = "pending_messages"
)

// MongoStore persists the ledger and the pending slots in two MongoDB
// collections. The pending collection carries a unique index on user_id so
// the one-slot-per-user rule holds even under concurrent writers.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects, pings, and prepares indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "database", database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", database)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}

	_, err = s.db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "exported", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create export index: %w", err)
	}

	unique := true
	_, err = s.db.Collection(pendingCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: &options.IndexOptions{Unique: &unique},
	})
	if err != nil {
		return fmt.Errorf("create pending index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) AppendEntry(ctx context.Context, entry core.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	_, err := s.db.Collection(messagesCollection).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *MongoStore) GetEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	var entry core.LedgerEntry
	err := s.db.Collection(messagesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.LedgerEntry{}, ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("find ledger entry %s: %w", id, err)
	}
	return entry, nil
}

func (s *MongoStore) QueryByMonthCategory(ctx context.Context, userID string, start, end time.Time, category string) ([]core.LedgerEntry, error) {
	filter := bson.M{
		"user_id":   userID,
		"category":  category,
		"timestamp": bson.M{"$gte": start, "$lte": end},
	}
	cursor, err := s.db.Collection(messagesCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []core.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode ledger entries: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) ListUnexported(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(int64(limit))
	// $ne also matches documents written before the marker existed.
	cursor, err := s.db.Collection(messagesCollection).Find(ctx, bson.M{"exported": bson.M{"$ne": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("query unexported entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []core.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode unexported entries: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) MarkExported(ctx context.Context, id string) error {
	res, err := s.db.Collection(messagesCollection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"exported": true}},
	)
	if err != nil {
		return fmt.Errorf("mark entry %s exported: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetPending(ctx context.Context, userID string) (*core.PendingConfirmation, error) {
	var p core.PendingConfirmation
	err := s.db.Collection(pendingCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending confirmation: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) SetPending(ctx context.Context, p core.PendingConfirmation) error {
	if err := p.Validate(); err != nil {
		return err
	}
	upsert := true
	_, err := s.db.Collection(pendingCollection).ReplaceOne(
		ctx,
		bson.M{"user_id": p.UserID},
		p,
		&options.ReplaceOptions{Upsert: &upsert},
	)
	if err != nil {
		return fmt.Errorf("upsert pending confirmation: %w", err)
	}
	return nil
}

func (s *MongoStore) DeletePending(ctx context.Context, userID string) error {
	_, err := s.db.Collection(pendingCollection).DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete pending confirmation: %w", err)
	}
	return nil
}
