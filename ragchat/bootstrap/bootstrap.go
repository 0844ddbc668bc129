// Package bootstrap wires configuration, secrets and backends into the
// components both entrypoints share.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ragchat/ragchat/config"
	"ragchat/ragchat/secrets"
	"ragchat/ragchat/services/llm"
	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/psql"
	"ragchat/ragchat/sources/psql/dao"
	"ragchat/ragchat/sources/storage"
	"ragchat/ragchat/utils/logging"
)

// App holds the long-lived components built at startup.
type App struct {
	Config    config.Config
	Docs      storage.DocumentStore
	Sessions  *sessions.Manager
	Completer llm.Completer

	db *psql.Database
}

// SecretSource prefers mounted secret files over the environment.
func SecretSource(cfg config.Config) secrets.Source {
	if cfg.SecretsDir != "" {
		return secrets.Chain{secrets.DirSource{Dir: cfg.SecretsDir}, secrets.EnvSource{}}
	}
	return secrets.EnvSource{}
}

// ResolveSecrets fills cfg's credentials; any missing one is fatal to the caller.
func ResolveSecrets(ctx context.Context, cfg config.Config) (config.Config, error) {
	values, err := secrets.Require(ctx, SecretSource(cfg), cfg.RequiredSecrets()...)
	if err != nil {
		return cfg, err
	}
	return cfg.WithSecrets(values), nil
}

// New selects the storage, session and model backends once for the process.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	docs, err := NewDocumentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Docs = docs

	var store sessions.Store
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection error: %w", err)
		}
		app.db = db
		store = dao.NewChatSessionDAO(db.DB, cfg.SessionTTL)
	default:
		store = sessions.NewMemoryStore(cfg.SessionTTL)
	}
	app.Sessions = sessions.NewManager(store, cfg.SystemPrompt)

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		app.Completer = llm.NewOllamaClient(cfg.LLMBaseURL)
	default:
		app.Completer = llm.NewGPTClient(cfg.OpenAIAPIKey, cfg.LLMBaseURL)
	}

	logging.AppLogger.Info("components initialised",
		zap.String("storage", docs.Backend()),
		zap.String("session_store", cfg.SessionStore),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel),
	)
	return app, nil
}

// NewDocumentStore picks the object store when remote storage is on, else local disk.
func NewDocumentStore(ctx context.Context, cfg config.Config) (storage.DocumentStore, error) {
	if cfg.StorageRemote {
		s, err := storage.NewMinIOStore(ctx, storage.MinIOOptions{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Secure:    cfg.MinIOSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio connection error: %w", err)
		}
		return s, nil
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
