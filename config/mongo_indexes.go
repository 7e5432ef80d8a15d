package config

import (
	"context"
	"errors"
	"time"

	mongorepo "github.com/yoockh/yoosocial/internal/repositories/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDatabase returns the configured database (MONGO_DB, default yoosocial).
func MongoDatabase() *mongo.Database {
	return MongoClient.Database(getEnv("MONGO_DB", "yoosocial"))
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messages := MongoDatabase().Collection(mongorepo.MessagesCollection)
	_, err := messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_message_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_conversation_created"),
		},
	})
	return err
}
