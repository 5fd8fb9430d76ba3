// Package postgresql provides the PostgreSQL persistence backend.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer on PostgreSQL. Documents with
// nested structure (graph nodes, recipients, context snapshots) live in
// JSONB columns; everything queried on is a plain column.
type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	workflows *workflowRepository
	runs      *runRepository
	nodeLogs  *nodeLogRepository
	campaigns *campaignRepository
	reminders *reminderRepository
}

// NewPersistence connects, migrates and returns the backend.
func NewPersistence(ctx context.Context, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := slog.Default().With("module", "postgresql")

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:        database,
		logger:    logger,
		workflows: &workflowRepository{db: database},
		runs:      &runRepository{db: database},
		nodeLogs:  &nodeLogRepository{db: database},
		campaigns: &campaignRepository{db: database},
		reminders: &reminderRepository{db: database},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository {
	return p.workflows
}

func (p *Persistence) Runs() persistence.RunRepository {
	return p.runs
}

func (p *Persistence) NodeLogs() persistence.NodeLogRepository {
	return p.nodeLogs
}

func (p *Persistence) Campaigns() persistence.CampaignRepository {
	return p.campaigns
}

func (p *Persistence) Reminders() persistence.ReminderRepository {
	return p.reminders
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// marshalJSON encodes a value for a JSONB column, mapping nil to SQL NULL.
func marshalJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}

	return data, nil
}

// unmarshalJSON decodes a JSONB column into target, leaving target untouched
// for NULL columns.
func unmarshalJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON column: %w", err)
	}

	return nil
}
