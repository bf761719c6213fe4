package handlers

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/services"
	"github.com/av-estimator/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	args := m.Called(ctx, email, password, name)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) CreateItem(ctx context.Context, input *services.CatalogItemInput) (*models.CatalogItem, error) {
	args := m.Called(ctx, input)
	it, _ := args.Get(0).(*models.CatalogItem)
	return it, args.Error(1)
}

func (m *mockCatalogService) GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(*models.CatalogItem)
	return it, args.Error(1)
}

func (m *mockCatalogService) UpdateItem(ctx context.Context, id uuid.UUID, input *services.CatalogItemInput) (*models.CatalogItem, error) {
	args := m.Called(ctx, id, input)
	it, _ := args.Get(0).(*models.CatalogItem)
	return it, args.Error(1)
}

func (m *mockCatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalogService) SearchItems(ctx context.Context, term string, limit int) ([]models.CatalogItem, error) {
	args := m.Called(ctx, term, limit)
	items, _ := args.Get(0).([]models.CatalogItem)
	return items, args.Error(1)
}

type mockProjectService struct{ mock.Mock }

func (m *mockProjectService) CreateProject(ctx context.Context, userID uuid.UUID, input *services.CreateProjectInput) (*models.Project, error) {
	args := m.Called(ctx, userID, input)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *mockProjectService) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID, userID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *mockProjectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, userID)
	ps, _ := args.Get(0).([]models.Project)
	return ps, args.Error(1)
}

func (m *mockProjectService) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, updates *services.UpdateProjectInput) (*models.Project, error) {
	args := m.Called(ctx, projectID, userID, updates)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *mockProjectService) ArchiveProject(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.Called(ctx, projectID, userID).Error(0)
}

func (m *mockProjectService) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.Called(ctx, projectID, userID).Error(0)
}

func (m *mockProjectService) GetForest(ctx context.Context, projectID, userID uuid.UUID) (estimate.Forest, error) {
	args := m.Called(ctx, projectID, userID)
	f, _ := args.Get(0).(estimate.Forest)
	return f, args.Error(1)
}

func (m *mockProjectService) SaveForest(ctx context.Context, projectID, userID uuid.UUID, f estimate.Forest) (estimate.Forest, error) {
	args := m.Called(ctx, projectID, userID, f)
	out, _ := args.Get(0).(estimate.Forest)
	return out, args.Error(1)
}

func (m *mockProjectService) AddCatalogItem(ctx context.Context, projectID, userID uuid.UUID, input *services.AddCatalogItemInput) (*estimate.Location, error) {
	args := m.Called(ctx, projectID, userID, input)
	loc, _ := args.Get(0).(*estimate.Location)
	return loc, args.Error(1)
}

func (m *mockProjectService) AddPackageInstance(ctx context.Context, projectID, userID uuid.UUID, input *services.AddPackageInstanceInput) (*estimate.Location, error) {
	args := m.Called(ctx, projectID, userID, input)
	loc, _ := args.Get(0).(*estimate.Location)
	return loc, args.Error(1)
}

func (m *mockProjectService) SaveSelectionAsPackage(ctx context.Context, projectID, userID uuid.UUID, input *services.SaveSelectionInput) (*models.PackageDefinition, *estimate.Location, error) {
	args := m.Called(ctx, projectID, userID, input)
	def, _ := args.Get(0).(*models.PackageDefinition)
	loc, _ := args.Get(1).(*estimate.Location)
	return def, loc, args.Error(2)
}

type mockEstimateService struct{ mock.Mock }

func (m *mockEstimateService) Estimate(ctx context.Context, projectID, userID uuid.UUID, query string) (*services.EstimateResult, error) {
	args := m.Called(ctx, projectID, userID, query)
	res, _ := args.Get(0).(*services.EstimateResult)
	return res, args.Error(1)
}

func (m *mockEstimateService) LocationGroups(ctx context.Context, projectID, userID uuid.UUID, locationID string) (*services.LocationGroups, error) {
	args := m.Called(ctx, projectID, userID, locationID)
	g, _ := args.Get(0).(*services.LocationGroups)
	return g, args.Error(1)
}

type mockPackageService struct{ mock.Mock }

func (m *mockPackageService) def(args mock.Arguments) (*models.PackageDefinition, error) {
	d, _ := args.Get(0).(*models.PackageDefinition)
	return d, args.Error(1)
}

func (m *mockPackageService) CreatePackage(ctx context.Context, userID uuid.UUID, input *services.CreatePackageInput) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, userID, input))
}

func (m *mockPackageService) GetPackage(ctx context.Context, packageID, userID uuid.UUID) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID))
}

func (m *mockPackageService) ListPackages(ctx context.Context, projectID, userID uuid.UUID) ([]models.PackageDefinition, error) {
	args := m.Called(ctx, projectID, userID)
	rows, _ := args.Get(0).([]models.PackageDefinition)
	return rows, args.Error(1)
}

func (m *mockPackageService) ListCatalogPackages(ctx context.Context) ([]models.PackageDefinition, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.PackageDefinition)
	return rows, args.Error(1)
}

func (m *mockPackageService) DeletePackage(ctx context.Context, packageID, userID uuid.UUID) error {
	return m.Called(ctx, packageID, userID).Error(0)
}

func (m *mockPackageService) AddLine(ctx context.Context, packageID, userID uuid.UUID, line estimate.ComponentLine) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID, line))
}

func (m *mockPackageService) AddCatalogLine(ctx context.Context, packageID, userID, catalogItemID uuid.UUID, qtyPerPackage float64) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID, catalogItemID, qtyPerPackage))
}

func (m *mockPackageService) UpdateLine(ctx context.Context, packageID, userID uuid.UUID, index int, line estimate.ComponentLine) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID, index, line))
}

func (m *mockPackageService) RemoveLine(ctx context.Context, packageID, userID uuid.UUID, index int) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID, index))
}

func (m *mockPackageService) ReplaceLines(ctx context.Context, packageID, userID uuid.UUID, lines []estimate.ComponentLine) (*models.PackageDefinition, error) {
	return m.def(m.Called(ctx, packageID, userID, lines))
}

func (m *mockPackageService) Usage(ctx context.Context, packageID, projectID, userID uuid.UUID) (*services.PackageUsage, error) {
	args := m.Called(ctx, packageID, projectID, userID)
	u, _ := args.Get(0).(*services.PackageUsage)
	return u, args.Error(1)
}

type mockSyncService struct{ mock.Mock }

func (m *mockSyncService) SyncProject(ctx context.Context, projectID, packageID uuid.UUID) (*estimate.SyncReport, error) {
	args := m.Called(ctx, projectID, packageID)
	r, _ := args.Get(0).(*estimate.SyncReport)
	return r, args.Error(1)
}

func (m *mockSyncService) SyncForUser(ctx context.Context, projectID, packageID, userID uuid.UUID) (*estimate.SyncReport, error) {
	args := m.Called(ctx, projectID, packageID, userID)
	r, _ := args.Get(0).(*estimate.SyncReport)
	return r, args.Error(1)
}

func (m *mockSyncService) SyncEverywhere(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error) {
	args := m.Called(ctx, packageID, userID)
	jobs, _ := args.Get(0).([]models.SyncJob)
	return jobs, args.Error(1)
}

func (m *mockSyncService) ListJobs(ctx context.Context, packageID, userID uuid.UUID) ([]models.SyncJob, error) {
	args := m.Called(ctx, packageID, userID)
	jobs, _ := args.Get(0).([]models.SyncJob)
	return jobs, args.Error(1)
}

func (m *mockSyncService) MarkJob(ctx context.Context, jobID uuid.UUID, status string, reason string) error {
	return m.Called(ctx, jobID, status, reason).Error(0)
}

func (m *mockSyncService) SaveJobReport(ctx context.Context, jobID uuid.UUID, report estimate.SyncReport) error {
	return m.Called(ctx, jobID, report).Error(0)
}

var (
	_ services.AuthService     = (*mockAuthService)(nil)
	_ services.CatalogService  = (*mockCatalogService)(nil)
	_ services.ProjectService  = (*mockProjectService)(nil)
	_ services.EstimateService = (*mockEstimateService)(nil)
	_ services.PackageService  = (*mockPackageService)(nil)
	_ services.SyncService     = (*mockSyncService)(nil)
)
