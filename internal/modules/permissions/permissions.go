package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopulse/core/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Permission kinds understood by the tracking core.
const (
	FineLocation       = "fine-location"
	BackgroundLocation = "background-location"
)

var errUnknownKind = errors.New("unknown permission kind")

// Checker is the read side consumed by the sampler.
type Checker interface {
	Check(ctx context.Context, uid, kind string) (bool, error)
}

// Service records and reads per-user permission grants. The actual prompt
// flow happens on the device; the device reports the outcome here.
type Service struct {
	db  *mongo.Database
	log *zap.Logger
}

func NewService(db *mongo.Database, log *zap.Logger) *Service {
	return &Service{db: db, log: log.Named("Permissions")}
}

// Check reports whether the user granted the given permission. A user with
// no recorded answer counts as denied.
func (s *Service) Check(ctx context.Context, uid, kind string) (bool, error) {
	if !validKind(kind) {
		return false, errUnknownKind
	}

	var doc struct {
		Permissions map[string]bool `bson:"permissions"`
	}
	err := database.Users(s.db).FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("permission lookup: %w", err)
	}
	return doc.Permissions[kind], nil
}

// Record stores the outcome of a permission request and returns it.
func (s *Service) Record(ctx context.Context, uid, kind string, granted bool) (bool, error) {
	if !validKind(kind) {
		return false, errUnknownKind
	}

	res, err := database.Users(s.db).UpdateByID(ctx, uid, bson.M{
		"$set":         bson.M{"permissions." + kind: granted},
		"$currentDate": bson.M{"updatedAt": true},
	})
	if err != nil {
		return false, fmt.Errorf("permission update: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}

	s.log.Info("permission recorded",
		zap.String("uid", uid),
		zap.String("kind", kind),
		zap.Bool("granted", granted),
	)
	return granted, nil
}

// List returns all recorded grants for a user.
func (s *Service) List(ctx context.Context, uid string) (map[string]bool, error) {
	var doc struct {
		Permissions map[string]bool `bson:"permissions"`
	}
	err := database.Users(s.db).FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	if doc.Permissions == nil {
		doc.Permissions = map[string]bool{}
	}
	return doc.Permissions, nil
}

func validKind(kind string) bool {
	switch kind {
	case FineLocation, BackgroundLocation:
		return true
	}
	return false
}
