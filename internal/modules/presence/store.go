package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopulse/core/internal/database"
	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/pkg/events"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrUserNotFound = errors.New("user not found")

// MongoStore persists presence on the users collection. lastSeen and
// updatedAt are assigned by the database ($currentDate), so they stay
// monotonic regardless of device clock skew.
type MongoStore struct {
	db  *mongo.Database
	bus *events.Bus
}

func NewMongoStore(db *mongo.Database, bus *events.Bus) *MongoStore {
	return &MongoStore{db: db, bus: bus}
}

func (s *MongoStore) EnsureProfile(ctx context.Context, uid, displayName, email string) error {
	coll := database.Users(s.db)

	err := coll.FindOne(ctx, bson.M{"_id": uid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		now := time.Now().UTC()
		doc := models.UserModel{
			UID:         uid,
			DisplayName: displayName,
			Email:       email,
			Status:      models.StatusOnline,
			IsOnline:    true,
			LastSeen:    &now,
			CreatedAt:   &now,
			UpdatedAt:   &now,
		}
		if _, insErr := coll.InsertOne(ctx, doc); insErr != nil {
			return fmt.Errorf("create profile: %w", insErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("profile lookup: %w", err)
	}

	_, err = coll.UpdateByID(ctx, uid, bson.M{
		"$set":         bson.M{"displayName": displayName, "email": email},
		"$currentDate": bson.M{"updatedAt": true},
	})
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	return nil
}

func (s *MongoStore) SetStatus(ctx context.Context, uid string, status models.PresenceStatus) error {
	res, err := database.Users(s.db).UpdateByID(ctx, uid, bson.M{
		"$set": bson.M{
			"status":   status,
			"isOnline": status.Online(),
		},
		"$currentDate": bson.M{"lastSeen": true, "updatedAt": true},
	})
	if err != nil {
		return fmt.Errorf("status update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Topic: events.TopicPresenceUpdated,
			UID:   uid,
			Payload: map[string]interface{}{
				"uid":      uid,
				"status":   status,
				"isOnline": status.Online(),
			},
		})
	}
	return nil
}

// Touch bumps lastSeen only. No status change, so nothing is published.
func (s *MongoStore) Touch(ctx context.Context, uid string) error {
	res, err := database.Users(s.db).UpdateByID(ctx, uid, bson.M{
		"$currentDate": bson.M{"lastSeen": true},
	})
	if err != nil {
		return fmt.Errorf("touch: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, uid string) (*models.UserModel, error) {
	var u models.UserModel
	err := database.Users(s.db).FindOne(ctx, bson.M{"_id": uid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) List(ctx context.Context, excludeUID string) ([]models.UserModel, error) {
	filter := bson.M{}
	if excludeUID != "" {
		filter["_id"] = bson.M{"$ne": excludeUID}
	}

	cur, err := database.Users(s.db).Find(ctx, filter,
		options.Find().SetSort(bson.D{
			{Key: "isOnline", Value: -1},
			{Key: "displayName", Value: 1},
		}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.UserModel
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// MarkStaleOffline flips online users whose lastSeen predates cutoff to
// offline. Covers clients that died without a deauthenticated or
// background signal. Returns the number of users flipped.
func (s *MongoStore) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := database.Users(s.db).UpdateMany(ctx,
		bson.M{
			"isOnline": true,
			"lastSeen": bson.M{"$lt": cutoff},
		},
		bson.M{
			"$set":         bson.M{"status": models.StatusOffline, "isOnline": false},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
