package service

import (
	"context"
	"errors"
	"sync"

	propertieserrors "stayhub/internal/properties/errors"
	"stayhub/internal/properties/repository"
	"stayhub/internal/properties/validator"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/model"
	"stayhub/pkg/sanitizer"
)

type PropertyService interface {
	Create(ctx context.Context, hostID string, property *model.Property) (*model.Property, error)
	GetByID(ctx context.Context, id string) (*model.Property, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error)
	ListByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Property, error)
	Search(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error)
	Update(ctx context.Context, id, hostID string, update *model.PropertyUpdate) (*model.Property, error)
	Delete(ctx context.Context, id, hostID string) error
}

type propertyService struct {
	repo      repository.PropertyRepository
	validator *validator.PropertyValidator
	cfg       *config.Config
}

func NewPropertyService(repo repository.PropertyRepository, propertyValidator *validator.PropertyValidator, cfg *config.Config) PropertyService {
	return &propertyService{
		repo:      repo,
		validator: propertyValidator,
		cfg:       cfg,
	}
}

func (s *propertyService) Create(ctx context.Context, hostID string, property *model.Property) (*model.Property, error) {
	if hostID == "" {
		return nil, apperrors.Unauthorized("Missing host identity")
	}

	property.HostID = hostID
	s.sanitize(property)

	if err := s.validator.Validate(property); err != nil {
		s.cfg.Log.Warn("Property validation failed", "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.Create(ctx, property); err != nil {
		s.cfg.Log.Error("Failed to create property", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to create property", err)
	}

	s.cfg.Log.Info("Property created", "id", property.ID, "host_id", hostID)
	return property, nil
}

func (s *propertyService) GetByID(ctx context.Context, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return property, nil
}

func (s *propertyService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error) {
	var count int64
	var properties []*model.Property
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count properties", "error", errCount)
			errCount = apperrors.Internal("Failed to count properties", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		properties, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list properties", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve properties", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return properties, count, nil
}

func (s *propertyService) ListByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Property, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("Host ID cannot be empty")
	}

	properties, err := s.repo.FindByHost(ctx, hostID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list properties by host", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve properties", err)
	}
	return properties, nil
}

func (s *propertyService) Search(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error) {
	filter.Location = sanitizer.TrimAndNormalize(filter.Location)

	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, validationError(err)
	}

	properties, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Property search failed", "error", err)
		return nil, apperrors.Internal("Failed to search properties", err)
	}
	return properties, nil
}

// Update applies a partial update. Only the owning host may modify a listing.
func (s *propertyService) Update(ctx context.Context, id, hostID string, update *model.PropertyUpdate) (*model.Property, error) {
	existing, err := s.ownedProperty(ctx, id, hostID)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Property update validation failed", "id", id, "error", err)
		return nil, validationError(err)
	}

	if _, err := s.repo.Update(ctx, id, update); err != nil {
		return nil, mapLookupError(err, id)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	s.cfg.Log.Info("Property updated", "id", id, "host_id", existing.HostID)
	return updated, nil
}

func (s *propertyService) Delete(ctx context.Context, id, hostID string) error {
	if _, err := s.ownedProperty(ctx, id, hostID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err, id)
	}

	s.cfg.Log.Info("Property deleted", "id", id, "host_id", hostID)
	return nil
}

// --- Helpers ---

func (s *propertyService) ownedProperty(ctx context.Context, id, hostID string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}
	if hostID == "" {
		return nil, apperrors.Unauthorized("Missing host identity")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	if property.HostID != hostID {
		return nil, apperrors.Forbidden("Property belongs to another host")
	}
	return property, nil
}

func (s *propertyService) sanitize(p *model.Property) {
	p.Title = sanitizer.NormalizeTitle(p.Title)
	p.Description = sanitizer.TrimAndNormalize(p.Description)
	p.Location = sanitizer.NormalizeLocation(p.Location)
	p.PropertyType = sanitizer.NormalizeLocation(p.PropertyType)
	p.Amenities = sanitizer.NormalizeAmenities(p.Amenities)
	p.Images = sanitizer.NormalizeImageURLs(p.Images)
}

func (s *propertyService) sanitizeUpdate(u *model.PropertyUpdate) {
	u.Title = sanitizer.NormalizeTitle(u.Title)
	if u.Description != nil {
		trimmed := sanitizer.TrimAndNormalize(*u.Description)
		u.Description = &trimmed
	}
	u.Location = sanitizer.NormalizeLocation(u.Location)
	u.PropertyType = sanitizer.NormalizeLocation(u.PropertyType)
	if u.Amenities != nil {
		u.Amenities = sanitizer.NormalizeAmenities(u.Amenities)
	}
	if u.Images != nil {
		u.Images = sanitizer.NormalizeImageURLs(u.Images)
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Property validation failed", verrs.Fields())
	}
	return apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
}

func mapLookupError(err error, id string) error {
	if errors.Is(err, propertieserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Property", id)
	}
	if errors.Is(err, propertieserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid property ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to access property", err)
}
