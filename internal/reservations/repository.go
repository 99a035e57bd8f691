package reservations

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ladla-backend/internal/schedule"
)

// Date bounds are YYYY-MM-DD strings: from inclusive, until exclusive.
// String order on date_rdv matches calendar order.
type Repository interface {
	Create(ctx context.Context, item Reservation) error
	Get(ctx context.Context, id string) (Reservation, error)
	ListRange(ctx context.Context, from, until string) ([]Reservation, error)
	SlotTaken(ctx context.Context, date, clock string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status schedule.Status, at time.Time) (Reservation, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteRange(ctx context.Context, from, until string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func rangeFilter(from, until string) bson.M {
	return bson.M{"date_rdv": bson.M{"$gte": from, "$lt": until}}
}

func (r *MongoRepository) Create(ctx context.Context, item Reservation) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Reservation, error) {
	var item Reservation
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return Reservation{}, err
	}
	return item, nil
}

func (r *MongoRepository) ListRange(ctx context.Context, from, until string) ([]Reservation, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date_rdv", Value: 1},
		{Key: "heure_rdv", Value: 1},
		{Key: "created_at", Value: 1},
	})
	cursor, err := r.col.Find(ctx, rangeFilter(from, until), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Reservation, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) SlotTaken(ctx context.Context, date, clock string) (bool, error) {
	filter := bson.M{
		"date_rdv":  date,
		"heure_rdv": clock,
		"status":    bson.M{"$ne": schedule.StatusCancelled},
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, status schedule.Status, at time.Time) (Reservation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status, "updated_at": at}}
	var updated Reservation
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Reservation{}, err
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

func (r *MongoRepository) DeleteRange(ctx context.Context, from, until string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, rangeFilter(from, until))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
