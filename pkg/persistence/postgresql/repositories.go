package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	value := t.Time

	return &value
}

type workflowRepository struct {
	db *sql.DB
}

func (r *workflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := marshalJSON(workflow.Nodes)
	if err != nil {
		return err
	}

	edges, err := marshalJSON(workflow.Edges)
	if err != nil {
		return err
	}

	variables, err := marshalJSON(workflow.Variables)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflows (id, tenant_id, name, description, status, version,
			nodes, edges, variables, created_at, updated_at, published_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			variables = EXCLUDED.variables,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at,
			archived_at = EXCLUDED.archived_at
	`, workflow.ID, workflow.TenantID, workflow.Name, workflow.Description,
		workflow.Status, workflow.Version, nodes, edges, variables,
		workflow.CreatedAt, workflow.UpdatedAt,
		nullTime(workflow.PublishedAt), nullTime(workflow.ArchivedAt))
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, description, status, version,
			nodes, edges, variables, created_at, updated_at, published_at, archived_at
		FROM workflows WHERE id = $1
	`, id)

	return scanWorkflow(row)
}

func (r *workflowRepository) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, description, status, version,
			nodes, edges, variables, created_at, updated_at, published_at, archived_at
		FROM workflows WHERE tenant_id = $1 ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow     models.Workflow
		nodes, edges []byte
		variables    []byte
		publishedAt  sql.NullTime
		archivedAt   sql.NullTime
	)

	err := row.Scan(&workflow.ID, &workflow.TenantID, &workflow.Name,
		&workflow.Description, &workflow.Status, &workflow.Version,
		&nodes, &edges, &variables, &workflow.CreatedAt, &workflow.UpdatedAt,
		&publishedAt, &archivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	if err := unmarshalJSON(nodes, &workflow.Nodes); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(edges, &workflow.Edges); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(variables, &workflow.Variables); err != nil {
		return nil, err
	}

	workflow.PublishedAt = timePtr(publishedAt)
	workflow.ArchivedAt = timePtr(archivedAt)

	return &workflow, nil
}

type runRepository struct {
	db *sql.DB
}

func (r *runRepository) Save(ctx context.Context, run *models.WorkflowRun) error {
	triggerData, err := marshalJSON(run.TriggerData)
	if err != nil {
		return err
	}

	runContext, err := marshalJSON(run.Context)
	if err != nil {
		return err
	}

	result, err := marshalJSON(run.Result)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (id, workflow_id, tenant_id, status,
			trigger_data, context, result, error, resume_node_id, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			context = EXCLUDED.context,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			resume_node_id = EXCLUDED.resume_node_id,
			completed_at = EXCLUDED.completed_at
	`, run.ID, run.WorkflowID, run.TenantID, run.Status,
		triggerData, runContext, result, run.Error, run.ResumeNodeID,
		run.StartedAt, nullTime(run.CompletedAt))
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, tenant_id, status, trigger_data, context, result,
			error, resume_node_id, started_at, completed_at
		FROM workflow_runs WHERE id = $1
	`, id)

	return scanRun(row)
}

func (r *runRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, tenant_id, status, trigger_data, context, result,
			error, resume_node_id, started_at, completed_at
		FROM workflow_runs WHERE workflow_id = $1 ORDER BY started_at DESC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.WorkflowRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(row rowScanner) (*models.WorkflowRun, error) {
	var (
		run                             models.WorkflowRun
		triggerData, runContext, result []byte
		completedAt                     sql.NullTime
	)

	err := row.Scan(&run.ID, &run.WorkflowID, &run.TenantID, &run.Status,
		&triggerData, &runContext, &result, &run.Error, &run.ResumeNodeID,
		&run.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrRunNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if err := unmarshalJSON(triggerData, &run.TriggerData); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(runContext, &run.Context); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(result, &run.Result); err != nil {
		return nil, err
	}

	run.CompletedAt = timePtr(completedAt)

	return &run, nil
}

type nodeLogRepository struct {
	db *sql.DB
}

func (r *nodeLogRepository) Append(ctx context.Context, log *models.NodeExecutionLog) error {
	inputSnapshot, err := marshalJSON(log.InputSnapshot)
	if err != nil {
		return err
	}

	outputSnapshot, err := marshalJSON(log.OutputSnapshot)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO node_execution_logs (id, run_id, node_id, node_type, status,
			input_snapshot, output_snapshot, error_message, duration_ms,
			tokens_used, cost_units, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, log.ID, log.RunID, log.NodeID, log.NodeType, log.Status,
		inputSnapshot, outputSnapshot, log.ErrorMessage, log.DurationMs,
		log.TokensUsed, log.CostUnits, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append node execution log: %w", err)
	}

	return nil
}

func (r *nodeLogRepository) ListByRun(ctx context.Context, runID string) ([]*models.NodeExecutionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, node_id, node_type, status, input_snapshot,
			output_snapshot, error_message, duration_ms, tokens_used, cost_units, created_at
		FROM node_execution_logs WHERE run_id = $1 ORDER BY created_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node execution logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.NodeExecutionLog, 0)

	for rows.Next() {
		var (
			log                           models.NodeExecutionLog
			inputSnapshot, outputSnapshot []byte
		)

		err := rows.Scan(&log.ID, &log.RunID, &log.NodeID, &log.NodeType,
			&log.Status, &inputSnapshot, &outputSnapshot, &log.ErrorMessage,
			&log.DurationMs, &log.TokensUsed, &log.CostUnits, &log.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node execution log: %w", err)
		}

		if err := unmarshalJSON(inputSnapshot, &log.InputSnapshot); err != nil {
			return nil, err
		}

		if err := unmarshalJSON(outputSnapshot, &log.OutputSnapshot); err != nil {
			return nil, err
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

type campaignRepository struct {
	db *sql.DB
}

func (r *campaignRepository) Save(ctx context.Context, campaign *models.Campaign) error {
	recipients, err := marshalJSON(campaign.Recipients)
	if err != nil {
		return err
	}

	messages, err := marshalJSON(campaign.Messages)
	if err != nil {
		return err
	}

	stats, err := marshalJSON(campaign.Stats)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, tenant_id, name, status, channel_id,
			recipients, messages, delay_seconds, simulate_typing, simulate_recording,
			cron_expression, stats, due_at, scheduled_at, started_at, completed_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			recipients = EXCLUDED.recipients,
			messages = EXCLUDED.messages,
			delay_seconds = EXCLUDED.delay_seconds,
			simulate_typing = EXCLUDED.simulate_typing,
			simulate_recording = EXCLUDED.simulate_recording,
			cron_expression = EXCLUDED.cron_expression,
			stats = EXCLUDED.stats,
			due_at = EXCLUDED.due_at,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`, campaign.ID, campaign.TenantID, campaign.Name, campaign.Status,
		campaign.ChannelID, recipients, messages, campaign.DelaySeconds,
		campaign.SimulateTyping, campaign.SimulateRecording, campaign.CronExpression,
		stats, campaign.DueAt, campaign.ScheduledAt,
		nullTime(campaign.StartedAt), nullTime(campaign.CompletedAt),
		campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, status, channel_id, recipients, messages,
			delay_seconds, simulate_typing, simulate_recording, cron_expression,
			stats, due_at, scheduled_at, started_at, completed_at, created_at, updated_at
		FROM campaigns WHERE id = $1
	`, id)

	return scanCampaign(row)
}

func (r *campaignRepository) List(ctx context.Context, tenantID string) ([]*models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, status, channel_id, recipients, messages,
			delay_seconds, simulate_typing, simulate_recording, cron_expression,
			stats, due_at, scheduled_at, started_at, completed_at, created_at, updated_at
		FROM campaigns WHERE tenant_id = $1 ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]*models.Campaign, 0)

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}

		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		campaign                    models.Campaign
		recipients, messages, stats []byte
		startedAt, completedAt      sql.NullTime
	)

	err := row.Scan(&campaign.ID, &campaign.TenantID, &campaign.Name,
		&campaign.Status, &campaign.ChannelID, &recipients, &messages,
		&campaign.DelaySeconds, &campaign.SimulateTyping, &campaign.SimulateRecording,
		&campaign.CronExpression, &stats, &campaign.DueAt, &campaign.ScheduledAt,
		&startedAt, &completedAt, &campaign.CreatedAt, &campaign.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCampaignNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}

	if err := unmarshalJSON(recipients, &campaign.Recipients); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(messages, &campaign.Messages); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(stats, &campaign.Stats); err != nil {
		return nil, err
	}

	campaign.StartedAt = timePtr(startedAt)
	campaign.CompletedAt = timePtr(completedAt)

	return &campaign, nil
}

type reminderRepository struct {
	db *sql.DB
}

func (r *reminderRepository) Save(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, tenant_id, kind, status, contact_id, phone,
			channel_id, content, sent, sent_at, error, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			content = EXCLUDED.content,
			sent = EXCLUDED.sent,
			sent_at = EXCLUDED.sent_at,
			error = EXCLUDED.error,
			due_at = EXCLUDED.due_at,
			updated_at = EXCLUDED.updated_at
	`, reminder.ID, reminder.TenantID, reminder.Kind, reminder.Status,
		reminder.ContactID, reminder.Phone, reminder.ChannelID, reminder.Content,
		reminder.Sent, nullTime(reminder.SentAt), reminder.Error,
		reminder.DueAt, reminder.CreatedAt, reminder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}

	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	var (
		reminder models.Reminder
		sentAt   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, kind, status, contact_id, phone, channel_id,
			content, sent, sent_at, error, due_at, created_at, updated_at
		FROM reminders WHERE id = $1
	`, id).Scan(&reminder.ID, &reminder.TenantID, &reminder.Kind, &reminder.Status,
		&reminder.ContactID, &reminder.Phone, &reminder.ChannelID, &reminder.Content,
		&reminder.Sent, &sentAt, &reminder.Error, &reminder.DueAt,
		&reminder.CreatedAt, &reminder.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrReminderNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan reminder: %w", err)
	}

	reminder.SentAt = timePtr(sentAt)

	return &reminder, nil
}
