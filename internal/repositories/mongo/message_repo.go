package mongo

import (
	"context"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MessagesCollection = "conversation_messages"

type messageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) repositories.MessageRepository {
	return &messageRepo{col: db.Collection(MessagesCollection)}
}

func (r *messageRepo) Insert(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string, limit int64) ([]models.Message, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "message_id", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
