package handlers

import (
	"tagview/internal/database"
	"tagview/internal/engine"
	"tagview/internal/indexer"
	"tagview/internal/startup"
)

type Handlers struct {
	engine      *engine.Engine
	db          *database.Database
	indexer     *indexer.Indexer
	authEnabled bool
}

func New(eng *engine.Engine, db *database.Database, idx *indexer.Indexer, config *startup.Config) *Handlers {
	return &Handlers{
		engine:      eng,
		db:          db,
		indexer:     idx,
		authEnabled: config.AuthEnabled,
	}
}
