package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps one document per snapshot, keyed by name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string // default mongodb://localhost:27017
	Database   string // default "metroflow"
	Collection string // default "maps"
}

type mongoDoc struct {
	Name    string    `bson:"_id"`
	Data    []byte    `bson:"data"`
	Size    int64     `bson:"size"`
	Updated time.Time `bson:"updated"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		opts.URI = "mongodb://localhost:27017"
	}
	if opts.Database == "" {
		opts.Database = "metroflow"
	}
	if opts.Collection == "" {
		opts.Collection = "maps"
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, storeErr(BackendMongo, "connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(BackendMongo, "connect", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, data []byte) (err error) {
	defer observe(ctx, BackendMongo, "put", time.Now(), &err)
	if err := checkPut(name, data); err != nil {
		return err
	}
	doc := mongoDoc{Name: name, Data: data, Size: int64(len(data)), Updated: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	return storeErr(BackendMongo, "put", err)
}

func (s *MongoStore) Get(ctx context.Context, name string) (data []byte, err error) {
	defer observe(ctx, BackendMongo, "get", time.Now(), &err)
	if err := validName(name); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(BackendMongo, "get", err)
	}
	return doc.Data, nil
}

func (s *MongoStore) List(ctx context.Context) (infos []Info, err error) {
	defer observe(ctx, BackendMongo, "list", time.Now(), &err)
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().
		SetProjection(bson.M{"data": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeErr(BackendMongo, "list", err)
	}
	if err := cur.All(ctx, &infos); err != nil {
		return nil, storeErr(BackendMongo, "list", err)
	}
	return infos, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) (err error) {
	defer observe(ctx, BackendMongo, "delete", time.Now(), &err)
	if err := validName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return storeErr(BackendMongo, "delete", err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
