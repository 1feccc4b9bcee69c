package database

import (
	"context"
	"fmt"
	"time"

	"github.com/geopulse/core/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// CollUsers holds account, presence and current-location documents,
	// addressed by uid.
	CollUsers = "users"
	// CollLocationHistory is the append-only log of location samples.
	CollLocationHistory = "locationHistory"
)

// DB is the global database handle.
var DB *mongo.Database

// Connect opens a MongoDB connection, verifies it and ensures indexes.
func Connect(ctx context.Context, cfg *config.AppConfig) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("index setup failed: %w", err)
	}

	DB = db
	return db, nil
}

// Disconnect closes the underlying client connection.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// History is always read newest-first per user, and swept by cutoff.
	_, err = db.Collection(CollLocationHistory).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uid", Value: 1}, {Key: "updatedAt", Value: -1}},
	})
	return err
}

// Users returns the users collection.
func Users(db *mongo.Database) *mongo.Collection { return db.Collection(CollUsers) }

// LocationHistory returns the location history collection.
func LocationHistory(db *mongo.Database) *mongo.Collection {
	return db.Collection(CollLocationHistory)
}
