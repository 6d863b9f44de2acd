package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource is a read-side staging connection. The warehouse stays
// relational, so Mongo never appears behind the Driver interface; staged raw
// events are the only thing it serves.
type MongoSource struct {
	client *mongo.Client
	dbName string
}

func NewMongoSource(dbName string) *MongoSource {
	return &MongoSource{dbName: dbName}
}

func (ms *MongoSource) Connect(dsn string) error {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(dsn))
	if err != nil {
		return err
	}
	ms.client = client
	return nil
}

func (ms *MongoSource) Close() error {
	return ms.client.Disconnect(context.Background())
}

func (ms *MongoSource) Collection(name string) *mongo.Collection {
	return ms.client.Database(ms.dbName).Collection(name)
}
