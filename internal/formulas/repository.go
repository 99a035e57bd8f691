package formulas

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, item Formula) error
	Get(ctx context.Context, category, id string) (Formula, error)
	List(ctx context.Context, category string) ([]Formula, error)
	Update(ctx context.Context, category, id string, set bson.M) (Formula, error)
	Delete(ctx context.Context, category, id string) (bool, error)
	Count(ctx context.Context, category string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func categoryFilter(category string) bson.M {
	if category == "" {
		return bson.M{}
	}
	return bson.M{"category": category}
}

func (r *MongoRepository) Create(ctx context.Context, item Formula) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, category, id string) (Formula, error) {
	var item Formula
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "category": category}).Decode(&item); err != nil {
		return Formula{}, err
	}
	return item, nil
}

func (r *MongoRepository) List(ctx context.Context, category string) ([]Formula, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "category", Value: 1},
		{Key: "prix", Value: 1},
		{Key: "nom", Value: 1},
	})
	cursor, err := r.col.Find(ctx, categoryFilter(category), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Formula, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Update(ctx context.Context, category, id string, set bson.M) (Formula, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Formula
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "category": category}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return Formula{}, err
	}
	return updated, nil
}

func (r *MongoRepository) Delete(ctx context.Context, category, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "category": category})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) Count(ctx context.Context, category string) (int64, error) {
	return r.col.CountDocuments(ctx, categoryFilter(category))
}
