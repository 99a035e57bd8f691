package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Formulas     *mongo.Collection
	Reservations *mongo.Collection
	Contacts     *mongo.Collection
	Subscribers  *mongo.Collection
	AdminUsers   *mongo.Collection
}

// Connect dials MongoDB, retrying with exponential backoff for up to
// maxWait while the database comes up.
func Connect(ctx context.Context, uri, dbName string, maxWait time.Duration, log *slog.Logger) (*mongo.Client, *Collections, error) {
	var client *mongo.Client

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait
	policy.MaxInterval = 10 * time.Second

	err := backoff.RetryNotify(
		func() error {
			c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := c.Ping(ctx, nil); err != nil {
				_ = c.Disconnect(context.Background())
				return fmt.Errorf("ping: %w", err)
			}
			client = c
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			log.Warn("mongo connection failed, retrying", slog.String("error", err.Error()), slog.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("db.Connect: %w", err)
	}

	db := client.Database(dbName)
	cols := &Collections{
		Formulas:     db.Collection("formules"),
		Reservations: db.Collection("reservations"),
		Contacts:     db.Collection("contact_messages"),
		Subscribers:  db.Collection("newsletter_subscribers"),
		AdminUsers:   db.Collection("admin_users"),
	}
	return client, cols, nil
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Formulas.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "prix", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("formules indexes: %w", err)
	}

	_, err = cols.Reservations.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date_rdv", Value: 1}, {Key: "heure_rdv", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("reservations indexes: %w", err)
	}

	_, err = cols.Contacts.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("contact indexes: %w", err)
	}

	_, err = cols.Subscribers.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("newsletter indexes: %w", err)
	}

	_, err = cols.AdminUsers.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("admin users indexes: %w", err)
	}

	return nil
}
