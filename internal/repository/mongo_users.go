package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique email index Create relies on.
func (r *MongoUsers) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *MongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *MongoUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUsers) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"verificationToken": token})
}

func (r *MongoUsers) Update(ctx context.Context, id primitive.ObjectID, f UserFields) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}
	if f.DisplayName != nil {
		set["displayName"] = *f.DisplayName
	}
	if f.PhotoURL != nil {
		set["photoURL"] = *f.PhotoURL
	}
	if f.EmailVerified != nil {
		set["emailVerified"] = *f.EmailVerified
	}
	if f.VerificationToken != nil {
		if *f.VerificationToken == "" {
			unset["verificationToken"] = ""
		} else {
			set["verificationToken"] = *f.VerificationToken
		}
	}
	if f.VerificationExpiresAt != nil {
		if f.VerificationExpiresAt.IsZero() {
			unset["verificationExpiresAt"] = ""
		} else {
			set["verificationExpiresAt"] = f.VerificationExpiresAt.UTC()
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
