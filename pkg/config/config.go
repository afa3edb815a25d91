// Package config loads MetroFlow settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/metroflow/config.toml, falling back to
// ~/.config/metroflow/config.toml. A missing file is not an error: every
// setting has a default. Keys absent from the file keep their defaults.
//
//	[editor]
//	snap = true
//	snap_threshold = 48
//	history = 100
//	theme = "default"
//
//	[render]
//	padding = 40
//	scale = 1.0
//	labels = true
//
//	[store]
//	backend = "file"
//
//	[server]
//	addr = ":8080"
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/render"
	"github.com/SonghaiFan/metroflow/pkg/revision"
	"github.com/SonghaiFan/metroflow/pkg/snap"
	"github.com/SonghaiFan/metroflow/pkg/store"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

const appName = "metroflow"

// Config is the complete configuration.
type Config struct {
	Editor Editor `toml:"editor"`
	Render Render `toml:"render"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Editor configures editing sessions.
type Editor struct {
	Snap          bool    `toml:"snap"`
	SnapThreshold float64 `toml:"snap_threshold"`
	History       int     `toml:"history"`
	Theme         string  `toml:"theme"`
}

// Render configures artifact output.
type Render struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Padding float64 `toml:"padding"`
	Scale   float64 `toml:"scale"`
	Labels  bool    `toml:"labels"`
}

// Store selects the snapshot store.
type Store struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Editor: Editor{
			Snap:          true,
			SnapThreshold: snap.DefaultThreshold,
			History:       revision.DefaultCapacity,
			Theme:         string(styles.ThemeDefault),
		},
		Render: Render{
			Padding: render.DefaultPadding,
			Scale:   render.DefaultScale,
			Labels:  true,
		},
		Store: Store{
			Backend:         store.BackendFile,
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   appName,
			MongoCollection: "maps",
		},
		Server: Server{Addr: ":8080"},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path, or the default location when path is empty.
// A missing default file yields [Default]; a missing explicit file is an
// error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	f, err := os.Open(path)
	if stderrors.Is(err, os.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open config")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML on top of the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Editor.SnapThreshold <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.snap_threshold must be positive")
	}
	if c.Editor.History <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.history must be positive")
	}
	if _, err := styles.ParseTheme(c.Editor.Theme); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "editor.theme")
	}
	if c.Render.Width < 0 || c.Render.Height < 0 || c.Render.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.width, render.height and render.padding must not be negative")
	}
	if c.Render.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.scale must be positive")
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendRedis, store.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q must be file, redis or mongo", c.Store.Backend)
	}
	if c.Store.RedisDB < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "store.redis_db must not be negative")
	}
	return errors.ValidateAddr(c.Server.Addr)
}

// Theme returns the parsed editor theme.
func (c Config) Theme() styles.Theme {
	t, err := styles.ParseTheme(c.Editor.Theme)
	if err != nil {
		return styles.ThemeDefault
	}
	return t
}

// StoreConfig converts the store section for [store.Open].
func (c Config) StoreConfig() store.Config {
	s := c.Store
	return store.Config{
		Backend:         s.Backend,
		Dir:             s.Dir,
		RedisAddr:       s.RedisAddr,
		RedisPassword:   s.RedisPassword,
		RedisDB:         s.RedisDB,
		MongoURI:        s.MongoURI,
		MongoDatabase:   s.MongoDatabase,
		MongoCollection: s.MongoCollection,
	}
}
