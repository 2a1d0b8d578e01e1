package chefs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/maps"
	"github.com/feastline/dispatch-backend/pkg/types"
)

type placeResolver interface {
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
}

// OnboardChefInput registers a kitchen with dispatch. The place id is
// resolved once at onboarding; every assignment afterwards reads the stored
// point.
type OnboardChefInput struct {
	KitchenName string
	Phone       *string
	PlaceID     string
	Unit        *string
	Cuisines    []string
}

// Service manages chef kitchen profiles.
type Service interface {
	Onboard(ctx context.Context, in OnboardChefInput) (*models.Chef, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Chef, error)
}

type service struct {
	repo   Repository
	places placeResolver
}

// NewService builds the chef service.
func NewService(repo Repository, places placeResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chef repository required")
	}
	if places == nil {
		return nil, fmt.Errorf("place resolver required")
	}
	return &service{repo: repo, places: places}, nil
}

func (s *service) Onboard(ctx context.Context, in OnboardChefInput) (*models.Chef, error) {
	name := strings.TrimSpace(in.KitchenName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kitchen name is required")
	}
	if strings.TrimSpace(in.PlaceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place_id is required")
	}

	details, err := s.places.ResolvePlace(ctx, in.PlaceID)
	if err != nil {
		return nil, err
	}
	address, err := kitchenAddressFromPlace(details, in.Unit)
	if err != nil {
		return nil, err
	}

	point := types.GeographyPoint{Lat: address.Lat, Lng: address.Lng}
	if !point.Valid() || point.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kitchen location unusable for routing")
	}

	chef := &models.Chef{
		KitchenName:  name,
		Phone:        in.Phone,
		Address:      address,
		KitchenPoint: point,
		Cuisines:     pq.StringArray(in.Cuisines),
		Active:       true,
	}
	created, err := s.repo.Create(ctx, chef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chef")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Chef, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chef id is required")
	}
	chef, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chef not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup chef")
	}
	return chef, nil
}
