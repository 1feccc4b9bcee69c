package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geopulse/core/internal/database"
	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/modules/presence"
	"github.com/geopulse/core/internal/pkg/jwt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service owns account lifecycle. Authentication transitions are
// forwarded to the presence tracker so sign-in and sign-out keep the
// presence document in step.
type Service struct {
	db      *mongo.Database
	tracker *presence.Tracker
	log     *zap.Logger
}

func NewService(db *mongo.Database, tracker *presence.Tracker, log *zap.Logger) *Service {
	return &Service{db: db, tracker: tracker, log: log.Named("auth")}
}

func (s *Service) Register(ctx context.Context, displayName, email, password string) (*models.UserModel, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	count, err := database.Users(s.db).CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	if count > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	user := models.UserModel{
		UID:         uuid.NewString(),
		DisplayName: displayName,
		Email:       email,
		Password:    string(hash),
		Status:      models.StatusOffline,
		IsOnline:    false,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if _, err := database.Users(s.db).InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("register: %w", err)
	}

	s.tracker.Authenticated(ctx, user.UID, user.DisplayName, user.Email)
	user.Status = models.StatusOnline
	user.IsOnline = true

	token, err := jwt.Sign(user.UID, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	s.log.Info("user registered", zap.String("uid", user.UID))
	return &user, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.UserModel, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.UserModel
	err := database.Users(s.db).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		time.Sleep(3 * time.Second)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		time.Sleep(3 * time.Second)
		return nil, "", ErrInvalidCredentials
	}

	s.tracker.Authenticated(ctx, user.UID, user.DisplayName, user.Email)
	user.Status = models.StatusOnline
	user.IsOnline = true

	token, err := jwt.Sign(user.UID, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	s.log.Info("user logged in", zap.String("uid", user.UID))
	return &user, token, nil
}

// Logout marks the user offline before the session token is discarded.
func (s *Service) Logout(ctx context.Context, uid string) {
	s.tracker.Deauthenticated(ctx, uid)
	s.log.Info("user logged out", zap.String("uid", uid))
}

func (s *Service) Profile(ctx context.Context, uid string) (*models.UserModel, error) {
	var user models.UserModel
	err := database.Users(s.db).FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, presence.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
