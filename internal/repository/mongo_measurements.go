package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMeasurements struct {
	coll *mongo.Collection
}

func NewMongoMeasurements(db *mongo.Database) *MongoMeasurements {
	return &MongoMeasurements{coll: db.Collection(MeasurementsCollection)}
}

// EnsureIndexes backs the per-user listing (userId == x order by createdAt desc).
func (r *MongoMeasurements) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create measurements indexes: %w", err)
	}
	return nil
}

func (r *MongoMeasurements) Create(ctx context.Context, m *models.Measurement) (primitive.ObjectID, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

func (r *MongoMeasurements) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Measurement, error) {
	var m models.Measurement
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MongoMeasurements) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Measurement, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoMeasurements) ListAll(ctx context.Context) ([]models.Measurement, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoMeasurements) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMeasurements) find(ctx context.Context, filter bson.M) ([]models.Measurement, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}) // newest first

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	measurements := make([]models.Measurement, 0)
	if err = cursor.All(ctx, &measurements); err != nil {
		return nil, err
	}
	return measurements, nil
}
