//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/pkg/database"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("estimator"),
		tcpostgres.WithUsername("estimator"),
		tcpostgres.WithPassword("estimator"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skipping integration test: postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.OpenPostgres(ctx, dsn, database.Options{MaxRetries: 3})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestRepositories_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	packages := NewPackageRepository(db)
	catalog := NewCatalogRepository(db)
	jobs := NewSyncJobRepository(db)

	u := &models.User{Email: "Estimator@Example.com", Name: "Estimator", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))

	var found models.User
	require.NoError(t, users.GetByEmail(ctx, "estimator@example.com", &found))
	assert.Equal(t, u.ID, found.ID)
	assert.True(t, appErr.IsCode(users.Create(ctx, &models.User{Email: u.Email, Name: "dup", PasswordHash: "x"}), appErr.CodeAlreadyExists))

	t.Run("catalog search skips deleted items", func(t *testing.T) {
		mic := &models.CatalogItem{Manufacturer: "Shure", Model: "MXA920", Category: "Microphones", UnitCost: 5000}
		old := &models.CatalogItem{Manufacturer: "Shure", Model: "MXA910", Category: "Microphones", UnitCost: 4000}
		require.NoError(t, catalog.Create(ctx, mic))
		require.NoError(t, catalog.Create(ctx, old))
		require.NoError(t, catalog.SoftDelete(ctx, old.ID))

		hits, err := catalog.Search(ctx, "mxa", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, mic.ID, hits[0].ID)

		both, err := catalog.GetMany(ctx, []uuid.UUID{mic.ID, old.ID})
		require.NoError(t, err)
		assert.Len(t, both, 2)
	})

	p := &models.Project{UserID: u.ID, Name: "HQ Fit-out"}
	require.NoError(t, p.SetForest(estimate.Forest{Roots: []estimate.Location{{ID: "room", Name: "Room"}}}))
	require.NoError(t, projects.Create(ctx, p))

	catalogDef := &models.PackageDefinition{Name: "Room Kit", Scope: "catalog", Version: 1, Lines: datatypes.JSON(`[]`)}
	require.NoError(t, packages.Create(ctx, catalogDef))
	projectDef := &models.PackageDefinition{ProjectID: &p.ID, Name: "Lobby Kit", Scope: "project", Version: 1}
	require.NoError(t, packages.Create(ctx, projectDef))

	t.Run("packages visible to a project", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, packages.Create(ctx, &models.PackageDefinition{ProjectID: &other, Name: "Elsewhere", Scope: "project", Version: 1}))

		rows, err := packages.ListForProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		dup := &models.PackageDefinition{Name: "Room Kit", Scope: "catalog", Version: 1}
		assert.Error(t, packages.Create(ctx, dup))
	})

	t.Run("package listing order is stable", func(t *testing.T) {
		twin := &models.PackageDefinition{ProjectID: &p.ID, Name: "Room Kit", Scope: "project", Version: 1}
		require.NoError(t, packages.Create(ctx, twin))
		defer func() { _ = packages.Delete(ctx, twin.ID) }()

		first, err := packages.ListForProject(ctx, p.ID)
		require.NoError(t, err)
		second, err := packages.ListForProject(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, first, 3)
		assert.Equal(t, catalogDef.ID, first[0].ID)
		assert.Equal(t, projectDef.ID, first[1].ID)
		assert.Equal(t, twin.ID, first[2].ID)
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("update lines bumps version under lock", func(t *testing.T) {
		updated, err := packages.UpdateLines(ctx, catalogDef.ID, func(row *models.PackageDefinition) error {
			def, err := row.Definition()
			if err != nil {
				return err
			}
			def.AddLine(estimate.ComponentLine{Model: "Amp", UnitCost: 100, QtyPerPackage: 1}, time.Now())
			return row.Apply(def)
		})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)

		_, err = packages.UpdateLines(ctx, uuid.New(), func(*models.PackageDefinition) error { return nil })
		assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	})

	t.Run("locked rewrites serialize", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := projects.WithLocked(ctx, p.ID, func(row *models.Project) error {
					f, err := row.Forest()
					if err != nil {
						return err
					}
					f.Roots[0].Items = append(f.Roots[0].Items, estimate.Item{Model: "Cable", Qty: 1})
					return row.SetForest(f)
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var got models.Project
		require.NoError(t, projects.GetByID(ctx, p.ID, &got))
		f, err := got.Forest()
		require.NoError(t, err)
		assert.Len(t, f.Roots[0].Items, 8)
	})

	t.Run("sync job report", func(t *testing.T) {
		j := &models.SyncJob{PackageID: catalogDef.ID, ProjectID: p.ID, Version: 2, Status: models.SyncJobPending}
		require.NoError(t, jobs.Create(ctx, j))
		require.NoError(t, jobs.UpdateStatus(ctx, j.ID, models.SyncJobCompleted, ""))
		require.NoError(t, jobs.SaveReport(ctx, j.ID, estimate.SyncReport{
			PackageID: catalogDef.ID.String(),
			Version:   2,
			Updated:   []estimate.InstanceLocation{{LocationID: "room", ItemIndex: 0}},
		}))

		list, err := jobs.ListByPackage(ctx, catalogDef.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.SyncJobCompleted, list[0].Status)
		rep, err := list[0].SyncReport()
		require.NoError(t, err)
		assert.Len(t, rep.Updated, 1)
	})

	ids, err := projects.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, ids)
	require.NoError(t, projects.Archive(ctx, p.ID))
	ids, err = projects.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
