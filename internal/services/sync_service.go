package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/repository"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskPackageSync is the asynq task type that brings one project's instances
// of a package up to date.
const TaskPackageSync = "package:sync"

// SyncTaskPayload is the payload of a TaskPackageSync task.
type SyncTaskPayload struct {
	SyncJobID string `json:"sync_job_id"`
	PackageID string `json:"package_id"`
	ProjectID string `json:"project_id"`
	Version   int    `json:"version"`
}

// TaskEnqueuer is the part of *asynq.Client the sync service needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type SyncService interface {
	// SyncProject rewrites the stored version of every instance of the
	// package in one project, under the project lock.
	SyncProject(ctx context.Context, projectID, packageID uuid.UUID) (*estimate.SyncReport, error)
	// SyncForUser is SyncProject behind an ownership check.
	SyncForUser(ctx context.Context, projectID, packageID, userID uuid.UUID) (*estimate.SyncReport, error)
	// SyncEverywhere records a job and enqueues a task for every project
	// holding out-of-date instances of the package.
	SyncEverywhere(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error)
	ListJobs(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error)

	// Job bookkeeping, called by the worker.
	MarkJob(ctx context.Context, jobID uuid.UUID, status string, reason string) error
	SaveJobReport(ctx context.Context, jobID uuid.UUID, report estimate.SyncReport) error
}

type syncService struct {
	projectRepo repository.ProjectRepository
	packageRepo repository.PackageRepository
	jobRepo     repository.SyncJobRepository
	enqueuer    TaskEnqueuer
	queue       string
	precedence  estimate.Precedence
}

func NewSyncService(projectRepo repository.ProjectRepository, packageRepo repository.PackageRepository, jobRepo repository.SyncJobRepository, enqueuer TaskEnqueuer, queue string, precedence estimate.Precedence) SyncService {
	return &syncService{
		projectRepo: projectRepo,
		packageRepo: packageRepo,
		jobRepo:     jobRepo,
		enqueuer:    enqueuer,
		queue:       queue,
		precedence:  precedence,
	}
}

var _ SyncService = (*syncService)(nil)

func (s *syncService) SyncProject(ctx context.Context, projectID, packageID uuid.UUID) (*estimate.SyncReport, error) {
	logger.L().Info("sync project", zap.String("project_id", projectID.String()), zap.String("package_id", packageID.String()))

	rows, err := s.packageRepo.ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defs, err := decodeDefinitions(rows, s.precedence)
	if err != nil {
		return nil, err
	}
	def, ok := defs.ByID(packageID.String())
	if !ok {
		return nil, appErr.New(appErr.CodeNotFound, "package not found")
	}

	var report estimate.SyncReport
	_, err = s.projectRepo.WithLocked(ctx, projectID, func(p *models.Project) error {
		f, err := decodeForest(p)
		if err != nil {
			return err
		}
		out, rep, err := estimate.SyncInstances(def.ID, def.Version, f, defs)
		if err != nil {
			if errors.Is(err, estimate.ErrInvalidForest) {
				return appErr.Wrap(err, appErr.CodeInvalid, "stored location tree is invalid")
			}
			return err
		}
		report = rep
		if !rep.Changed() {
			return nil
		}
		return p.SetForest(out)
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("project synced",
		zap.String("project_id", projectID.String()),
		zap.String("package_id", packageID.String()),
		zap.Int("version", report.Version),
		zap.Int("updated", len(report.Updated)),
		zap.Int("already_current", len(report.AlreadyCurrent)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return &report, nil
}

func (s *syncService) SyncForUser(ctx context.Context, projectID, packageID, userID uuid.UUID) (*estimate.SyncReport, error) {
	if _, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID); err != nil {
		return nil, err
	}
	return s.SyncProject(ctx, projectID, packageID)
}

func (s *syncService) SyncEverywhere(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error) {
	logger.L().Info("sync everywhere", zap.String("package_id", packageID.String()), zap.String("user_id", userID.String()))

	var row models.PackageDefinition
	if err := s.packageRepo.GetByID(ctx, packageID, &row); err != nil {
		return nil, err
	}

	var targets []uuid.UUID
	if row.ProjectID != nil {
		if _, err := loadOwnedProject(ctx, s.projectRepo, *row.ProjectID, userID); err != nil {
			return nil, err
		}
		targets = []uuid.UUID{*row.ProjectID}
	} else {
		ids, err := s.projectRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		targets = ids
	}

	jobs := []models.SyncJob{}
	for _, projectID := range targets {
		needed, err := s.needsSync(ctx, projectID, packageID)
		if err != nil {
			logger.L().Warn("skip project during sync fan-out", zap.String("project_id", projectID.String()), zap.Error(err))
			continue
		}
		if !needed {
			continue
		}

		job := &models.SyncJob{
			PackageID: packageID,
			ProjectID: projectID,
			Version:   row.Version,
			Status:    models.SyncJobPending,
		}
		if err := s.jobRepo.Create(ctx, job); err != nil {
			return jobs, err
		}
		if err := s.dispatch(ctx, job); err != nil {
			return jobs, err
		}
		jobs = append(jobs, *job)
	}

	logger.L().Info("sync jobs created", zap.String("package_id", packageID.String()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

// dispatch enqueues the job, or runs it inline when no queue is configured.
func (s *syncService) dispatch(ctx context.Context, job *models.SyncJob) error {
	if s.enqueuer == nil {
		logger.L().Warn("asynq client not configured, syncing inline", zap.String("sync_job_id", job.ID.String()))
		report, err := s.SyncProject(ctx, job.ProjectID, job.PackageID)
		if err != nil {
			job.Status = models.SyncJobFailed
			job.Error = err.Error()
			return s.MarkJob(ctx, job.ID, models.SyncJobFailed, err.Error())
		}
		if err := s.SaveJobReport(ctx, job.ID, *report); err != nil {
			return err
		}
		job.Status = models.SyncJobCompleted
		return s.MarkJob(ctx, job.ID, models.SyncJobCompleted, "")
	}

	pb, err := json.Marshal(SyncTaskPayload{
		SyncJobID: job.ID.String(),
		PackageID: job.PackageID.String(),
		ProjectID: job.ProjectID.String(),
		Version:   job.Version,
	})
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal sync payload failed")
	}
	task := asynq.NewTask(TaskPackageSync, pb)
	if _, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(s.queue), asynq.MaxRetry(5), asynq.TaskID(job.ID.String())); err != nil {
		logger.L().Error("enqueue sync task failed", zap.Error(err), zap.String("sync_job_id", job.ID.String()))
		_ = s.jobRepo.UpdateStatus(ctx, job.ID, models.SyncJobFailed, "enqueue failed")
		return appErr.Wrap(err, appErr.CodeUnavailable, "enqueue sync task failed")
	}
	return nil
}

// needsSync dry-runs the sync against the current forest.
func (s *syncService) needsSync(ctx context.Context, projectID, packageID uuid.UUID) (bool, error) {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return false, err
	}
	f, err := decodeForest(&p)
	if err != nil {
		return false, err
	}
	rows, err := s.packageRepo.ListForProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	defs, err := decodeDefinitions(rows, s.precedence)
	if err != nil {
		return false, err
	}
	def, ok := defs.ByID(packageID.String())
	if !ok {
		return false, nil
	}
	_, rep, err := estimate.SyncInstances(def.ID, def.Version, f, defs)
	if err != nil {
		return false, err
	}
	return rep.Changed(), nil
}

func (s *syncService) ListJobs(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error) {
	var row models.PackageDefinition
	if err := s.packageRepo.GetByID(ctx, packageID, &row); err != nil {
		return nil, err
	}
	if row.ProjectID != nil {
		if _, err := loadOwnedProject(ctx, s.projectRepo, *row.ProjectID, userID); err != nil {
			return nil, err
		}
	}
	return s.jobRepo.ListByPackage(ctx, packageID)
}

func (s *syncService) MarkJob(ctx context.Context, jobID uuid.UUID, status string, reason string) error {
	logger.L().Info("update sync job status", zap.String("sync_job_id", jobID.String()), zap.String("status", status))
	return s.jobRepo.UpdateStatus(ctx, jobID, status, reason)
}

func (s *syncService) SaveJobReport(ctx context.Context, jobID uuid.UUID, report estimate.SyncReport) error {
	return s.jobRepo.SaveReport(ctx, jobID, report)
}
