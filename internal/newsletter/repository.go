package newsletter

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, item Subscriber) error
	GetByEmail(ctx context.Context, email string) (Subscriber, error)
	List(ctx context.Context, status Status) ([]Subscriber, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Subscriber, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, item Subscriber) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (Subscriber, error) {
	var item Subscriber
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&item); err != nil {
		return Subscriber{}, err
	}
	return item, nil
}

func (r *MongoRepository) List(ctx context.Context, status Status) ([]Subscriber, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "subscribed_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Subscriber, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Subscriber, error) {
	set := bson.M{"status": status, "updated_at": at}
	update := bson.M{"$set": set}
	switch status {
	case StatusActive:
		set["subscribed_at"] = at
		update["$unset"] = bson.M{"unsubscribed_at": ""}
	case StatusUnsubscribed:
		set["unsubscribed_at"] = at
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Subscriber
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Subscriber{}, err
	}
	return updated, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
