package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/services"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SyncTaskHandler runs package sync jobs queued by SyncService.SyncEverywhere.
type SyncTaskHandler struct {
	syncSvc services.SyncService
}

func NewSyncTaskHandler(syncSvc services.SyncService) *SyncTaskHandler {
	return &SyncTaskHandler{syncSvc: syncSvc}
}

// Register wires the handler into an asynq mux.
func (h *SyncTaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(services.TaskPackageSync, h.HandleSync)
}

func (h *SyncTaskHandler) HandleSync(ctx context.Context, t *asynq.Task) error {
	var p services.SyncTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid sync task payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	jobID, err := uuid.Parse(p.SyncJobID)
	if err != nil {
		logger.L().Error("invalid sync job id in task", zap.Error(err))
		return fmt.Errorf("sync job id: %v: %w", err, asynq.SkipRetry)
	}
	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		_ = h.syncSvc.MarkJob(ctx, jobID, models.SyncJobFailed, "invalid project id")
		return fmt.Errorf("project id: %v: %w", err, asynq.SkipRetry)
	}
	packageID, err := uuid.Parse(p.PackageID)
	if err != nil {
		_ = h.syncSvc.MarkJob(ctx, jobID, models.SyncJobFailed, "invalid package id")
		return fmt.Errorf("package id: %v: %w", err, asynq.SkipRetry)
	}

	logger.L().Info("handling sync task",
		zap.String("sync_job_id", jobID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("package_id", packageID.String()),
		zap.Int("version", p.Version),
	)

	if err := h.syncSvc.MarkJob(ctx, jobID, models.SyncJobRunning, ""); err != nil {
		logger.L().Warn("update status running failed", zap.Error(err))
	}

	report, err := h.syncSvc.SyncProject(ctx, projectID, packageID)
	if err != nil {
		logger.L().Error("sync project failed", zap.Error(err), zap.String("sync_job_id", jobID.String()))
		_ = h.syncSvc.MarkJob(ctx, jobID, models.SyncJobFailed, err.Error())
		// A missing project or package will not appear on retry.
		if appErr.IsCode(err, appErr.CodeNotFound) || appErr.IsCode(err, appErr.CodeInvalid) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	// The definition may have moved on since the job was queued; the sync
	// always targets the version current at run time.
	if report.Version != p.Version {
		logger.L().Info("package changed since sync was queued", zap.Int("queued_version", p.Version), zap.Int("synced_version", report.Version))
	}

	if err := h.syncSvc.SaveJobReport(ctx, jobID, *report); err != nil {
		logger.L().Error("save sync report failed", zap.Error(err))
	}
	_ = h.syncSvc.MarkJob(ctx, jobID, models.SyncJobCompleted, "")
	return nil
}
