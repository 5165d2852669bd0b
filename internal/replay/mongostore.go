package replay

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoManager dials a Mongo client the way the teacher's
// common/database.MongoManager does: ApplyURI, pool-size options, an
// optional credential, and a Ping before returning.
type MongoManager struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// DialMongo connects to uri and selects database, mirroring
// common/database.NewMongo.
func DialMongo(uri, database, username, password string, minPoolSize, maxPoolSize uint64) (*MongoManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri)
	opts.SetMinPoolSize(minPoolSize)
	opts.SetMaxPoolSize(maxPoolSize)
	if username != "" && password != "" {
		opts.SetAuth(options.Credential{Username: username, Password: password})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("replay: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("replay: mongo ping: %w", err)
	}
	return &MongoManager{Client: client, Database: client.Database(database)}, nil
}

func (m *MongoManager) Close() error {
	if m == nil || m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(context.Background())
}

// MongoStore implements GameHistoryStore against a Mongo collection,
// one document per game record, grounded on
// core/domain/repository.GameRecordRepository's Mongo-backed
// implementation.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore builds a store writing to the "game_records" collection.
func NewMongoStore(m *MongoManager) *MongoStore {
	return &MongoStore{collection: m.Database.Collection("game_records")}
}

func (s *MongoStore) SaveGameRecord(ctx context.Context, record *GameRecord) error {
	_, err := s.collection.InsertOne(ctx, record)
	return err
}

func (s *MongoStore) FindGameRecord(ctx context.Context, gameID string) (*GameRecord, error) {
	var record GameRecord
	err := s.collection.FindOne(ctx, bson.M{"header.gameid": gameID}).Decode(&record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MongoStore) FindGameRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*GameRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"rounds.events.payload.seatnames": userID},
		options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*GameRecord
	for cursor.Next(ctx) {
		var record GameRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, cursor.Err()
}
