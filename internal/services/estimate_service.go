package services

import (
	"context"
	"strings"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/repository"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EstimateService interface {
	Estimate(ctx context.Context, projectID, userID uuid.UUID, query string) (*EstimateResult, error)
	LocationGroups(ctx context.Context, projectID, userID uuid.UUID, locationID string) (*LocationGroups, error)
}

// EstimateResult is the priced location tree of a project.
type EstimateResult struct {
	ProjectID uuid.UUID                  `json:"project_id"`
	Query     string                     `json:"query,omitempty"`
	Total     estimate.Summary           `json:"total"`
	Stale     int                        `json:"stale"`
	Missing   int                        `json:"missing"`
	Locations []estimate.LocationSummary `json:"locations"`
}

// LocationGroups is one location's items partitioned into package
// instances, legacy groups and standalone items.
type LocationGroups struct {
	LocationID string           `json:"location_id"`
	Name       string           `json:"name"`
	Groups     estimate.Grouped `json:"groups"`
	Direct     estimate.Summary `json:"direct"`
	Total      estimate.Summary `json:"total"`
}

type estimateService struct {
	projectRepo repository.ProjectRepository
	packageRepo repository.PackageRepository
	precedence  estimate.Precedence
	match       estimate.Matcher
}

func NewEstimateService(projectRepo repository.ProjectRepository, packageRepo repository.PackageRepository, precedence estimate.Precedence) EstimateService {
	return &estimateService{projectRepo: projectRepo, packageRepo: packageRepo, precedence: precedence, match: estimate.DefaultMatcher}
}

var _ EstimateService = (*estimateService)(nil)

// Estimate prices every location of the project against the definitions as
// they are right now. A non-blank query narrows the items first.
func (s *estimateService) Estimate(ctx context.Context, projectID, userID uuid.UUID, query string) (*EstimateResult, error) {
	logger.L().Info("estimate project", zap.String("project_id", projectID.String()), zap.String("query", query))

	f, defs, err := s.load(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query != "" {
		f = estimate.FilterForest(f, query, s.match)
	}

	out := &EstimateResult{ProjectID: projectID, Query: query, Locations: []estimate.LocationSummary{}}
	for _, root := range f.Roots {
		b := estimate.Breakdown(root, defs)
		out.Total = out.Total.Add(b.Total)
		out.Stale += b.Stale
		out.Missing += b.Missing
		out.Locations = append(out.Locations, b)
	}
	return out, nil
}

func (s *estimateService) LocationGroups(ctx context.Context, projectID, userID uuid.UUID, locationID string) (*LocationGroups, error) {
	f, defs, err := s.load(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	loc, ok := f.Find(locationID)
	if !ok {
		return nil, appErr.New(appErr.CodeNotFound, "location not found").WithMeta("location_id", locationID)
	}
	return &LocationGroups{
		LocationID: loc.ID,
		Name:       loc.Name,
		Groups:     estimate.GroupItems(*loc, defs),
		Direct:     estimate.AggregateDirect(*loc, defs),
		Total:      estimate.Aggregate(*loc, defs),
	}, nil
}

func (s *estimateService) load(ctx context.Context, projectID, userID uuid.UUID) (estimate.Forest, estimate.Definitions, error) {
	p, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID)
	if err != nil {
		return estimate.Forest{}, estimate.Definitions{}, err
	}
	f, err := decodeForest(p)
	if err != nil {
		return estimate.Forest{}, estimate.Definitions{}, err
	}
	rows, err := s.packageRepo.ListForProject(ctx, projectID)
	if err != nil {
		return estimate.Forest{}, estimate.Definitions{}, err
	}
	defs, err := decodeDefinitions(rows, s.precedence)
	if err != nil {
		return estimate.Forest{}, estimate.Definitions{}, err
	}
	return f, defs, nil
}
