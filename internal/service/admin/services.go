package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/validation"
	"go.uber.org/zap"
)

const (
	MsgServiceNameRequired = "El nombre del servicio es obligatorio."
	MsgServicePriceInvalid = "El precio debe ser un número."
)

type ServicesBackend interface {
	ListServices(ctx context.Context, token string) ([]domain.Service, error)
	CreateService(ctx context.Context, token string, in apiclient.ServiceInput) (*domain.Service, error)
	UpdateService(ctx context.Context, token, id string, in apiclient.ServiceInput) (*domain.Service, error)
	DeleteService(ctx context.Context, token, id string) error
}

// CatalogInvalidator drops the cached public services list.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ServiceForm is the back-office service editor. An empty Price is sent as null.
type ServiceForm struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       Price  `json:"price"`
}

// Price accepts a JSON number, a numeric string, an empty string or null.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
	default:
		*p = Price(data)
	}
	return nil
}

type ServicesUseCase interface {
	List(ctx context.Context, token string) ([]domain.Service, error)
	Create(ctx context.Context, token string, form ServiceForm) (*domain.Service, error)
	Update(ctx context.Context, token, id string, form ServiceForm) (*domain.Service, error)
	Delete(ctx context.Context, token, id string) error
}

type ServicesAdmin struct {
	backend ServicesBackend
	catalog CatalogInvalidator
	logger  *zap.Logger
}

func NewServicesAdmin(backend ServicesBackend, catalog CatalogInvalidator, logger *zap.Logger) *ServicesAdmin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServicesAdmin{backend: backend, catalog: catalog, logger: logger}
}

func (s *ServicesAdmin) List(ctx context.Context, token string) ([]domain.Service, error) {
	return s.backend.ListServices(ctx, token)
}

func (s *ServicesAdmin) Create(ctx context.Context, token string, form ServiceForm) (*domain.Service, error) {
	in, err := form.input()
	if err != nil {
		return nil, err
	}
	svc, err := s.backend.CreateService(ctx, token, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return svc, nil
}

func (s *ServicesAdmin) Update(ctx context.Context, token, id string, form ServiceForm) (*domain.Service, error) {
	in, err := form.input()
	if err != nil {
		return nil, err
	}
	svc, err := s.backend.UpdateService(ctx, token, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return svc, nil
}

func (s *ServicesAdmin) Delete(ctx context.Context, token, id string) error {
	if err := s.backend.DeleteService(ctx, token, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ServicesAdmin) invalidate(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to invalidate services cache", zap.Error(err))
	}
}

func (f ServiceForm) input() (apiclient.ServiceInput, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := validation.Struct(f, MsgServiceNameRequired); err != nil {
		return apiclient.ServiceInput{}, err
	}
	in := apiclient.ServiceInput{Name: f.Name, Description: strings.TrimSpace(f.Description)}
	if raw := strings.TrimSpace(string(f.Price)); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return apiclient.ServiceInput{}, validation.New("price", MsgServicePriceInvalid)
		}
		in.Price = &price
	}
	return in, nil
}

var _ ServicesUseCase = (*ServicesAdmin)(nil)
