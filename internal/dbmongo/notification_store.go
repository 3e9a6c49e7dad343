package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"researchhub/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationCollection = "notifications"

type notificationDoc struct {
	ID        primitive.ObjectID          `bson:"_id,omitempty"`
	UserID    string                      `bson:"user_id"`
	Kind      string                      `bson:"kind"`
	Title     string                      `bson:"title"`
	Body      string                      `bson:"body"`
	Read      bool                        `bson:"read"`
	Metadata  common.NotificationMetadata `bson:"metadata,omitempty"`
	CreatedAt time.Time                   `bson:"created_at"`
	UpdatedAt time.Time                   `bson:"updated_at"`
}

func (d *notificationDoc) toDomain() *common.Notification {
	return &common.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Kind:      common.NotificationKind(d.Kind),
		Title:     d.Title,
		Body:      d.Body,
		Read:      d.Read,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type notificationStore struct {
	collection *mongo.Collection
}

// NewNotificationStore is the document-database implementation of
// common.NotificationStore, for deployments that keep the platform's
// data in MongoDB instead of MySQL.
func NewNotificationStore(client *MongoClient) common.NotificationStore {
	store := &notificationStore{
		collection: client.Database.Collection(notificationCollection),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.ensureIndexes(ctx); err != nil {
		log.Printf("Index warning: %v", err)
	}

	return store
}

func (s *notificationStore) Create(
	ctx context.Context,
	userID string,
	kind common.NotificationKind,
	title, body string,
	metadata common.NotificationMetadata,
) (*common.Notification, error) {
	if err := common.ValidateNotificationInput(userID, kind, title, body); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &notificationDoc{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Kind:      string(kind),
		Title:     title,
		Body:      body,
		Read:      false,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return doc.toDomain(), nil
}

func (s *notificationStore) ByUserID(ctx context.Context, userID string, limit int) ([]*common.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	result := make([]*common.Notification, len(docs))
	for i, doc := range docs {
		result[i] = doc.toDomain()
	}

	return result, nil
}

func (s *notificationStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

func (s *notificationStore) MarkAsRead(ctx context.Context, userID, notificationID string) (*common.Notification, error) {
	objectID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		// A malformed id cannot match any record, same outcome as a
		// foreign one.
		return nil, common.ErrNotFound
	}

	filter := bson.M{"_id": objectID, "user_id": userID}

	var doc notificationDoc
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up notification: %w", err)
	}

	if doc.Read {
		return doc.toDomain(), nil
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{"read": true, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}

	return doc.toDomain(), nil
}

func (s *notificationStore) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}

	result, err := s.collection.UpdateMany(ctx, bson.M{"user_id": userID, "read": false}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return result.ModifiedCount, nil
}

func (s *notificationStore) Delete(ctx context.Context, userID, notificationID string) error {
	objectID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return common.ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": objectID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}

	return nil
}

// ensureIndexes mirrors the schema indexes the platform relies on:
// newest-first listing and the unread counter.
func (s *notificationStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	return nil
}
