package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/repository"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type CatalogService interface {
	CreateItem(ctx context.Context, input *CatalogItemInput) (*models.CatalogItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input *CatalogItemInput) (*models.CatalogItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	SearchItems(ctx context.Context, term string, limit int) ([]models.CatalogItem, error)
}

type CatalogItemInput struct {
	Manufacturer       string
	Model              string
	PartNumber         string
	Description        string
	Category           string
	Subcategory        string
	UnitCost           float64
	LaborHrsPerUnit    float64
	UnitOfMeasure      string
	Vendor             string
	Discontinued       bool
	DefaultAccessories []estimate.DefaultAccessory
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) CreateItem(ctx context.Context, input *CatalogItemInput) (*models.CatalogItem, error) {
	logger.L().Info("create catalog item", zap.String("manufacturer", input.Manufacturer), zap.String("model", input.Model))
	item := &models.CatalogItem{}
	if err := applyCatalogInput(item, input); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := s.catalogRepo.GetByID(ctx, id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem changes the catalog entry only. Package lines and location items
// keep the values copied when they were added.
func (s *catalogService) UpdateItem(ctx context.Context, id uuid.UUID, input *CatalogItemInput) (*models.CatalogItem, error) {
	logger.L().Info("update catalog item", zap.String("catalog_item_id", id.String()))
	var item models.CatalogItem
	if err := s.catalogRepo.GetByID(ctx, id, &item); err != nil {
		return nil, err
	}
	if item.Deleted {
		return nil, appErr.New(appErr.CodeNotFound, "catalog item not found")
	}
	if err := applyCatalogInput(&item, input); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Update(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *catalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	logger.L().Info("delete catalog item", zap.String("catalog_item_id", id.String()))
	return s.catalogRepo.SoftDelete(ctx, id)
}

func (s *catalogService) SearchItems(ctx context.Context, term string, limit int) ([]models.CatalogItem, error) {
	return s.catalogRepo.Search(ctx, term, limit)
}

func applyCatalogInput(item *models.CatalogItem, in *CatalogItemInput) error {
	if strings.TrimSpace(in.Manufacturer) == "" || strings.TrimSpace(in.Model) == "" {
		return appErr.New(appErr.CodeInvalid, "manufacturer and model are required")
	}
	if in.UnitCost < 0 || in.LaborHrsPerUnit < 0 {
		return appErr.New(appErr.CodeInvalid, "unit cost and labor must not be negative")
	}
	item.Manufacturer = strings.TrimSpace(in.Manufacturer)
	item.Model = strings.TrimSpace(in.Model)
	item.PartNumber = in.PartNumber
	item.Description = in.Description
	item.Category = in.Category
	item.Subcategory = in.Subcategory
	item.UnitCost = in.UnitCost
	item.LaborHrsPerUnit = in.LaborHrsPerUnit
	item.UnitOfMeasure = in.UnitOfMeasure
	if item.UnitOfMeasure == "" {
		item.UnitOfMeasure = "EA"
	}
	item.Vendor = in.Vendor
	item.Discontinued = in.Discontinued

	item.DefaultAccessories = nil
	if len(in.DefaultAccessories) > 0 {
		b, err := json.Marshal(in.DefaultAccessories)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInvalid, "invalid default accessories")
		}
		item.DefaultAccessories = datatypes.JSON(b)
	}
	return nil
}
