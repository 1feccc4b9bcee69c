package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopulse/core/internal/database"
	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/pkg/events"
	"github.com/geopulse/core/internal/pkg/pagination"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists location data: the current location lives on the
// user document, history in its own append-only collection.
type MongoStore struct {
	db  *mongo.Database
	bus *events.Bus
}

func NewMongoStore(db *mongo.Database, bus *events.Bus) *MongoStore {
	return &MongoStore{db: db, bus: bus}
}

func (s *MongoStore) WriteCurrent(ctx context.Context, uid string, sample models.LocationSample) error {
	res, err := database.Users(s.db).UpdateByID(ctx, uid, bson.M{
		"$set":         bson.M{"currentLocation": sample},
		"$currentDate": bson.M{"lastLocationUpdate": true},
	})
	if err != nil {
		return fmt.Errorf("current location write: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("current location write: user %s not found", uid)
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Topic: events.TopicLocationUpdated,
			UID:   uid,
			Payload: map[string]interface{}{
				"uid":      uid,
				"location": sample,
			},
		})
	}
	return nil
}

func (s *MongoStore) CurrentLocation(ctx context.Context, uid string) (*models.LocationSample, *time.Time, error) {
	var doc struct {
		CurrentLocation    *models.LocationSample `bson:"currentLocation"`
		LastLocationUpdate *time.Time             `bson:"lastLocationUpdate"`
	}
	err := database.Users(s.db).FindOne(ctx, bson.M{"_id": uid},
		options.FindOne().SetProjection(bson.M{"currentLocation": 1, "lastLocationUpdate": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, ErrNoCurrentLocation
	}
	if err != nil {
		return nil, nil, err
	}
	if doc.CurrentLocation == nil {
		return nil, nil, ErrNoCurrentLocation
	}
	return doc.CurrentLocation, doc.LastLocationUpdate, nil
}

func (s *MongoStore) AppendHistory(ctx context.Context, uid string, sample models.LocationSample, meta models.DeviceMeta) error {
	entry := models.LocationHistoryEntry{
		ID:        uuid.NewString(),
		UID:       uid,
		Location:  sample,
		Device:    meta,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := database.LocationHistory(s.db).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

func (s *MongoStore) QueryHistory(ctx context.Context, uid string, q pagination.Query) ([]models.LocationHistoryEntry, response.Pagination, error) {
	coll := database.LocationHistory(s.db)
	filter := bson.M{"uid": uid}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	cur, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip(q.Skip()).
		SetLimit(q.Limit()),
	)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	defer cur.Close(ctx)

	entries := make([]models.LocationHistoryEntry, 0, q.Size)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, response.Pagination{}, err
	}
	return entries, q.Meta(total), nil
}

func (s *MongoStore) DeleteOlderThan(ctx context.Context, uid string, cutoff time.Time) (int64, error) {
	res, err := database.LocationHistory(s.db).DeleteMany(ctx, bson.M{
		"uid":       uid,
		"updatedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("history delete: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) UsersWithHistory(ctx context.Context) ([]string, error) {
	raw, err := database.LocationHistory(s.db).Distinct(ctx, "uid", bson.M{})
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(raw))
	for _, v := range raw {
		if uid, ok := v.(string); ok {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}
