package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ButterFlowQ/DesignGen/internal/agents"
	"github.com/ButterFlowQ/DesignGen/internal/config"
	"github.com/ButterFlowQ/DesignGen/internal/document"
	"github.com/ButterFlowQ/DesignGen/internal/llm"
	"github.com/ButterFlowQ/DesignGen/internal/orchestrator"
	"github.com/ButterFlowQ/DesignGen/internal/schema"
)

const defaultDBPath = ".designgen/designgen.db"

// app bundles the wired collaborators behind the CLI commands. The
// orchestrator is attached separately so read-only commands work without
// provider credentials.
type app struct {
	cfg    config.Config
	db     *sql.DB
	store  *document.Store
	schema schema.Schema
	orch   *orchestrator.Orchestrator
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := document.Open(dbPath)
	if err != nil {
		return nil, err
	}

	var s schema.Schema
	if cfg.SchemaPath != "" {
		s, err = schema.LoadFile(cfg.SchemaPath)
	} else {
		s, err = schema.Default()
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, store: document.NewStore(db), schema: s}, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

// attachOrchestrator builds the LLM-backed side: one client per agent model,
// the router, and the turn orchestrator.
func (a *app) attachOrchestrator() error {
	cfg := a.cfg
	factory := func(model string) (llm.Client, error) {
		return llm.NewClient(llm.Config{
			Model:     model,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			BaseURL:   cfg.LLM.BaseURL,
			Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
	}

	registry, err := agents.NewRegistry(agents.RegistryConfig{
		Factory:       factory,
		DefaultModel:  cfg.LLM.Model,
		Overrides:     cfg.Models,
		Temperature:   cfg.LLM.Temperature,
		MaxRetries:    cfg.Limits.MaxRetries,
		FanOutWorkers: cfg.Limits.FanOutWorkers,
	})
	if err != nil {
		return err
	}

	routerClient, err := factory(cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("build router client: %w", err)
	}
	router := orchestrator.NewRouter(routerClient, a.schema)
	a.orch = orchestrator.New(a.store, registry, router, a.schema, cfg.Limits.MaxChainedTurns)
	return nil
}
