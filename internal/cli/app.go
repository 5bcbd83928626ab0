package cli

import (
	"os"
	"path/filepath"

	"github.com/contextkit/contextkit/internal/config"
	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/embedder"
	"github.com/contextkit/contextkit/internal/store"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

// indexFileName is the SQLite database's filename inside config.DirName.
const indexFileName = "index.db"

// app bundles everything a command needs once a project is located:
// its root directory, loaded config, open store, and the shared
// tokenizer/embedder instances.
type app struct {
	root   string
	cfg    config.Config
	store  *store.Store
	tok    *tokenizer.Tiktoken
	embed  embedder.Provider
}

// findRoot walks upward from the working directory looking for
// config.DirName, the same way git locates a repository root.
func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", ctxerr.Wrap(ctxerr.DatabaseError, "resolving working directory", err)
	}
	for {
		if config.Initialized(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ctxerr.New(ctxerr.NotInitialized, "no contextkit project found in this directory or its parents; run `contextkit init` first")
		}
		dir = parent
	}
}

// openApp locates the project root, loads its config, and opens its
// index. Commands that require an initialized project call this first.
func openApp() (*app, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "loading project config", err)
	}
	st, err := store.Open(filepath.Join(root, config.DirName, indexFileName))
	if err != nil {
		return nil, err
	}
	return &app{
		root:  root,
		cfg:   cfg,
		store: st,
		tok:   tokenizer.New(),
		embed: embedder.NewLocal(256),
	}, nil
}

func (a *app) Close() {
	if a != nil && a.store != nil {
		a.store.Close()
	}
}
