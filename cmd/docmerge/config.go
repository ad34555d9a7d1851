// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/docmerge/internal/convert"
	"github.com/pdiddy/docmerge/internal/history"
	"github.com/pdiddy/docmerge/internal/merge"
	"github.com/pdiddy/docmerge/internal/secrets"
	"github.com/pdiddy/docmerge/internal/storage"
	"github.com/pdiddy/docmerge/pkg/types"
)

// Configuration keys. Environment variables use the DOCMERGE_ prefix with
// dots replaced by underscores, e.g. DOCMERGE_DOCUMENT_BACKEND.
const (
	keyScratchDir      = "scratch_dir"
	keyImageDPI        = "image.dpi"
	keyDocumentBackend = "document.backend"
	keyDocumentBinary  = "document.binary"
	keyDocumentImage   = "document.image"
	keyWebEnabled      = "web.enabled"
	keyWebExecPath     = "web.exec_path"
	keyHistoryPath     = "history.path"
	keyStorageEndpoint = "storage.endpoint"
	keyStorageBucket   = "storage.bucket"
	keyStoragePrefix   = "storage.prefix"
	keyStorageUseSSL   = "storage.use_ssl"
	keyStorageAccess   = "storage.access_key"
	keyStorageSecret   = "storage.secret_key"
	keyServerAddr      = "server.addr"
	keyLogLevel        = "log.level"
)

const (
	defaultLogLevel   = "info"
	defaultServerAddr = ":8080"
)

func setDefaults() {
	viper.SetDefault(keyImageDPI, 100)
	viper.SetDefault(keyDocumentBackend, string(types.BackendSoffice))
	viper.SetDefault(keyDocumentBinary, "soffice")
	viper.SetDefault(keyDocumentImage, "docmerge/libreoffice:latest")
	viper.SetDefault(keyWebEnabled, true)
	viper.SetDefault(keyServerAddr, defaultServerAddr)
	viper.SetDefault(keyLogLevel, defaultLogLevel)
	viper.SetDefault(keyStoragePrefix, "merged/")

	if home, err := os.UserHomeDir(); err == nil {
		viper.SetDefault(keyHistoryPath, filepath.Join(home, ".local", "share", "docmerge", "history.db"))
	}
}

// appConfig reads the full configuration from viper.
func appConfig() types.AppConfig {
	cfg := types.AppConfig{
		Merge: types.MergeConfig{
			ScratchDir: viper.GetString(keyScratchDir),
			Image:      types.ImageConfig{DPI: viper.GetFloat64(keyImageDPI)},
			Document: types.DocumentConfig{
				Backend: types.DocumentBackend(viper.GetString(keyDocumentBackend)),
				Binary:  viper.GetString(keyDocumentBinary),
				Image:   viper.GetString(keyDocumentImage),
			},
			Web: types.WebConfig{
				Enabled:  viper.GetBool(keyWebEnabled),
				ExecPath: viper.GetString(keyWebExecPath),
			},
		},
		History: types.HistoryConfig{Path: viper.GetString(keyHistoryPath)},
		Storage: types.StorageConfig{
			Endpoint:  viper.GetString(keyStorageEndpoint),
			Bucket:    viper.GetString(keyStorageBucket),
			Prefix:    viper.GetString(keyStoragePrefix),
			UseSSL:    viper.GetBool(keyStorageUseSSL),
			AccessKey: viper.GetString(keyStorageAccess),
			SecretKey: viper.GetString(keyStorageSecret),
		},
		ServerAddr: viper.GetString(keyServerAddr),
		LogLevel:   viper.GetString(keyLogLevel),
	}
	secrets.ApplyStorage(&cfg.Storage, loadedSecrets)
	return cfg
}

// app holds the long-lived pieces every subcommand shares.
type app struct {
	pipeline *merge.Pipeline

	// history is nil when the ledger is disabled or cannot be opened.
	history *history.Store
}

// newApp builds the merge pipeline and its history ledger and publisher
// from cfg.
func newApp(cfg types.AppConfig) (*app, error) {
	converters, err := convert.FromConfig(cfg.Merge)
	if err != nil {
		return nil, err
	}

	a := &app{}
	opts := []merge.Option{
		merge.WithScratchDir(cfg.Merge.ScratchDir),
		merge.WithLogger(log),
	}

	if cfg.History.Path != "" {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			log.WithError(err).Warn("job history disabled")
		} else {
			a.history = store
			opts = append(opts, merge.WithRecorder(store))
		}
	}

	if cfg.Storage.Enabled() {
		pub, err := storage.NewPublisher(cfg.Storage, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, merge.WithPublisher(pub))
	}

	a.pipeline = merge.New(converters, opts...)
	return a, nil
}

// Close releases the history database.
func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}
