package drafts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
)

var ErrNotFound = errors.New("no schedule draft matches that identifier")

// Save upserts the draft keyed on its primary identifier and bumps the
// modification timestamp.
func Save(draft *ScheduleDraft) error {
	collection := database.GetCollection(CollectionName)

	draft.ModificationDateTime = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(
		context.Background(), bson.M{"primaryidentifier": draft.PrimaryIdentifier}, draft, opts)

	return err
}

func GetByIdentifier(identifier string) (*ScheduleDraft, error) {
	collection := database.GetCollection(CollectionName)

	var draft ScheduleDraft
	err := collection.FindOne(
		context.Background(), bson.M{"primaryidentifier": identifier}).Decode(&draft)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// List returns drafts newest first, without the parsed payload or the
// rendered report.
func List(limit int64) ([]*ScheduleDraft, error) {
	collection := database.GetCollection(CollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "creationdatetime", Value: -1}}).
		SetProjection(bson.M{"data": 0, "report": 0})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := collection.Find(context.Background(), bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	drafts := []*ScheduleDraft{}
	for cursor.Next(context.Background()) {
		var draft ScheduleDraft
		if err := cursor.Decode(&draft); err != nil {
			return nil, err
		}

		drafts = append(drafts, &draft)
	}

	return drafts, cursor.Err()
}

func Delete(identifier string) error {
	collection := database.GetCollection(CollectionName)

	result, err := collection.DeleteOne(
		context.Background(), bson.M{"primaryidentifier": identifier})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
