package mutant

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ntons/mutant/mutantd/internal/dna"
)

const dnaCollectionName = "dna"

// one document per distinct grid
type dbRecord struct {
	Key            string    `bson:"key"`
	Dna            []string  `bson:"dna"`
	Classification string    `bson:"classification"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

type store interface {
	// Save upserts a record by key, created reports a new key.
	Save(ctx context.Context, rec *dbRecord) (created bool, err error)
	// Count counts records per classification.
	Count(ctx context.Context) (mutants, humans int64, err error)
	Close(ctx context.Context) error
}

type mongoStore struct {
	cli        *mongo.Client
	collection *mongo.Collection
}

func dialMongo(ctx context.Context, url string) (_ *mongo.Client, err error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cli, err := mongo.NewClient(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to new mongo client: %w", err)
	}
	if err = cli.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	return cli, nil
}

func dialStore(ctx context.Context, url, database string) (_ *mongoStore, err error) {
	cli, err := dialMongo(ctx, url)
	if err != nil {
		return
	}
	collection := cli.Database(database).Collection(dnaCollectionName)
	if _, err = collection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	); err != nil {
		cli.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &mongoStore{cli: cli, collection: collection}, nil
}

func (s *mongoStore) Save(ctx context.Context, rec *dbRecord) (_ bool, err error) {
	r, err := s.collection.UpdateOne(
		ctx,
		bson.M{"key": rec.Key},
		bson.M{"$set": bson.M{
			"dna":            rec.Dna,
			"classification": rec.Classification,
			"updatedAt":      rec.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return
	}
	return r.UpsertedCount > 0, nil
}

func (s *mongoStore) Count(ctx context.Context) (mutants, humans int64, err error) {
	if mutants, err = s.collection.CountDocuments(
		ctx, bson.M{"classification": dna.Mutant.String()}); err != nil {
		return
	}
	if humans, err = s.collection.CountDocuments(
		ctx, bson.M{"classification": dna.Human.String()}); err != nil {
		return
	}
	return
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.cli.Disconnect(ctx)
}
