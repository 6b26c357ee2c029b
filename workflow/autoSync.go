package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/models"
)

var tracer = otel.Tracer("subsidy-backend")

// AutoSyncFarmers scans FarmerRegistered events and pulls every farmer the
// store does not know yet. Each pass is recorded as a SyncRun row; re-running
// over the same block range is a no-op because already-known addresses are
// skipped by their natural key. Per-address failures are collected, not
// fatal: the run finishes partial instead of failed.
func (e *Engine) AutoSyncFarmers(ctx context.Context, triggeredBy string) (*AutoSyncResult, error) {
	ctx, span := tracer.Start(ctx, "autoSyncFarmers")
	defer span.End()

	started := time.Now()
	run := &models.SyncRun{
		RunID:       uuid.NewString(),
		Status:      models.SyncRunStatusRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   &started,
	}
	if err := e.store.CreateSyncRun(ctx, run); err != nil {
		return nil, err
	}

	result, err := e.scanAndSync(ctx, run)
	finished := time.Now()
	run.FinishedAt = &finished
	run.DurationMs = finished.Sub(started).Milliseconds()
	if err != nil {
		run.Status = models.SyncRunStatusFailed
		run.ErrorCount++
		if ferr := e.store.FinishSyncRun(ctx, run); ferr != nil {
			e.log.WithError(ferr).WithField("runId", run.RunID).Error("failed to close sync run")
		}
		return nil, err
	}

	run.EventsScanned = result.TotalEvents
	run.RecordsSynced = result.SyncedCount
	run.ErrorCount = len(result.Errors)
	run.Status = models.SyncRunStatusSuccess
	if run.ErrorCount > 0 {
		run.Status = models.SyncRunStatusPartial
	}
	if err := e.store.FinishSyncRun(ctx, run); err != nil {
		return nil, err
	}
	result.RunID = run.RunID
	return result, nil
}

func (e *Engine) scanAndSync(ctx context.Context, run *models.SyncRun) (*AutoSyncResult, error) {
	head, err := e.gateway.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrLedgerUnreachable, err)
	}
	events, err := e.gateway.FarmerRegisteredEvents(ctx, e.scanFrom, head)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrLedgerUnreachable, err)
	}

	result := &AutoSyncResult{TotalEvents: len(events)}
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		address := models.NormalizeAddress(ev.Farmer)
		if seen[address] {
			result.Skipped++
			continue
		}
		seen[address] = true

		existing, err := e.store.FindFarmer(ctx, address)
		if err != nil {
			return nil, err
		}
		if existing != nil && !existing.Provisional {
			result.Skipped++
			continue
		}

		if _, err := e.SyncFarmer(ctx, address); err != nil {
			e.log.WithFields(logrus.Fields{
				"runId":  run.RunID,
				"farmer": address,
			}).WithError(err).Warn("farmer sync failed during auto-sync")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", address, err))
			continue
		}
		result.SyncedCount++
	}
	return result, nil
}
