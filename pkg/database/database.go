package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var Instance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "busscheduler"

func Connect() error {
	connectionString := defaultMongoConnectionString
	dbName := defaultMongoDatabase

	env := util.GetEnvironmentVariables()

	if env["SCHEDULER_MONGODB_CONNECTION"] != "" {
		connectionString = env["SCHEDULER_MONGODB_CONNECTION"]
	}

	if env["SCHEDULER_MONGODB_DATABASE"] != "" {
		dbName = env["SCHEDULER_MONGODB_DATABASE"]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	Instance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	err = client.Ping(context.Background(), nil)
	if err != nil {
		return err
	}

	createIndexes()

	runCommands()

	return nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return Instance.Database.Collection(collectionName)
}

// Requires
// use admin
// db.runCommand( {
//    setClusterParameter:
//       { changeStreamOptions: { preAndPostImages: { expireAfterSeconds: 15 } } }
// } )

func runCommands() {
	var result bson.M
	err := Instance.Database.RunCommand(context.Background(), bson.D{
		{Key: "collMod", Value: "schedule_drafts"},
		{Key: "changeStreamPreAndPostImages", Value: bson.M{"enabled": true}},
	}).Decode(&result)

	if err != nil {
		log.Error().Err(err).Msg("Run commands mongodb")
	}
}
