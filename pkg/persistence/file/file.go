// Package file provides JSON-file persistence for development and tests.
// Each aggregate lives in its own subdirectory, one document per file; node
// logs are appended to one document per run.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conduitcrm/conduit/pkg/persistence"
)

const fileMode = 0o644

// Persistence stores every aggregate as JSON files under a root directory.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates the file store, creating subdirectories as needed.
func NewPersistence(root string) (*Persistence, error) {
	root = strings.TrimPrefix(root, "file://")

	for _, dir := range []string{"workflows", "runs", "node_logs", "campaigns", "reminders"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return &Persistence{root: root}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository {
	return &workflowRepository{p}
}

func (p *Persistence) Runs() persistence.RunRepository {
	return &runRepository{p}
}

func (p *Persistence) NodeLogs() persistence.NodeLogRepository {
	return &nodeLogRepository{p}
}

func (p *Persistence) Campaigns() persistence.CampaignRepository {
	return &campaignRepository{p}
}

func (p *Persistence) Reminders() persistence.ReminderRepository {
	return &reminderRepository{p}
}

// HealthCheck verifies the data directory is writable.
func (p *Persistence) HealthCheck(_ context.Context) error {
	probe := filepath.Join(p.root, ".health")

	if err := os.WriteFile(probe, []byte("ok"), fileMode); err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}

	return os.Remove(probe)
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

func (p *Persistence) read(kind, id string, v any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.path(kind, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func (p *Persistence) write(kind, id string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p.path(kind, id), data, fileMode)
}

// list decodes every document of a kind through the decode callback.
func (p *Persistence) list(kind string, decode func(data []byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(p.root, kind))
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(p.root, kind, entry.Name()))
		if err != nil {
			return err
		}

		if err := decode(data); err != nil {
			return err
		}
	}

	return nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, os.ErrNotExist) {
		return sentinel
	}

	return err
}
