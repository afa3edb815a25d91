// Package store keeps named map snapshots.
//
// A [Store] maps snapshot names to JSON documents in the format of package
// document. Three backends are provided:
//   - file: one JSON file per snapshot, for the CLI
//   - redis: shared storage for several API servers
//   - mongo: a MongoDB collection, one document per snapshot
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := store.SaveMap(ctx, s, "berlin", m); err != nil {
//	    return err
//	}
//	m, err = store.LoadMap(ctx, s, "berlin")
//
// Names are validated with [errors.ValidateSnapshotName] and data is checked
// to be a decodable snapshot before it is written.
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/observability"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "snapshot not found")

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Info describes a stored snapshot.
type Info struct {
	Name    string    `json:"name" bson:"_id"`
	Size    int64     `json:"size" bson:"size"`
	Updated time.Time `json:"updated" bson:"updated"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put stores data under name, replacing any previous snapshot.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the snapshot stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns every snapshot sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a snapshot. Deleting a missing snapshot returns
	// ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases resources held by the store.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open creates the store selected by cfg.Backend. An empty backend selects
// the file store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case BackendMongo:
		return NewMongoStore(ctx, MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q (want file, redis or mongo)", cfg.Backend)
}

// SaveMap serializes m and stores it under name.
func SaveMap(ctx context.Context, s Store, name string, m *metro.Map) error {
	data, err := document.Marshal(m)
	if err != nil {
		return err
	}
	return s.Put(ctx, name, data)
}

// LoadMap fetches and decodes the snapshot stored under name.
func LoadMap(ctx context.Context, s Store, name string) (*metro.Map, error) {
	data, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := document.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return m, nil
}

func validName(name string) error {
	return errors.ValidateSnapshotName(name)
}

// checkPut validates a snapshot before it is written.
func checkPut(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := document.Parse(data); err != nil {
		return err
	}
	return nil
}

func sortInfos(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
}

func notFound(name string) error {
	return fmt.Errorf("%q: %w", name, ErrNotFound)
}

// storeErr wraps backend failures. Validation and not-found errors pass
// through unchanged.
func storeErr(backend, op string, err error) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeStore, err, "%s %s", backend, op)
}

// observe reports a finished operation to the store hooks. Use it with
// defer and a named error result.
func observe(ctx context.Context, backend, op string, start time.Time, err *error) {
	observability.Store().OnStoreOp(ctx, backend, op, time.Since(start), *err)
}
