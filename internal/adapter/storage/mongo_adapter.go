package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/formalin/internal/core/domain"
)

const expiryReportCollection = "expiry_reports"

// MongoAdapter stores generated expiry reports.
type MongoAdapter struct {
	client *mongo.Client
	dbName string
}

func NewMongoAdapter(ctx context.Context, uri, dbName string) (*MongoAdapter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoAdapter{client: client, dbName: dbName}, nil
}

func (m *MongoAdapter) SaveExpiryReport(ctx context.Context, report domain.ExpiryReport) error {
	collection := m.client.Database(m.dbName).Collection(expiryReportCollection)
	if _, err := collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert expiry report: %w", err)
	}
	return nil
}

func (m *MongoAdapter) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
