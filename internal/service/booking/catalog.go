package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/legalinmo/internal/calendar"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"go.uber.org/zap"
)

type CatalogUseCase interface {
	List(ctx context.Context) ([]domain.Service, error)
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	Refresh(ctx context.Context) ([]domain.Service, error)
	Invalidate(ctx context.Context) error
	Calendar(year int, month time.Month, now time.Time) PickerMonth
}

type ServicesCache interface {
	GetServices(ctx context.Context) ([]domain.Service, error)
	SetServices(ctx context.Context, services []domain.Service) error
	InvalidateServices(ctx context.Context) error
}

type ServicesSource interface {
	ListServices(ctx context.Context, token string) ([]domain.Service, error)
}

type CatalogService struct {
	source ServicesSource
	cache  ServicesCache
	loc    *time.Location
	logger *zap.Logger
}

func NewCatalogService(source ServicesSource, cache ServicesCache, loc *time.Location, logger *zap.Logger) *CatalogService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{source: source, cache: cache, loc: loc, logger: logger}
}

// List serves the public services list from cache, falling back to the upstream.
func (s *CatalogService) List(ctx context.Context) ([]domain.Service, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetServices(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("services cache read failed", zap.Error(err))
		}
	}
	return s.Refresh(ctx)
}

// Refresh reloads services from the upstream and rewrites the cache.
func (s *CatalogService) Refresh(ctx context.Context) ([]domain.Service, error) {
	services, err := s.source.ListServices(ctx, "")
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetServices(ctx, services); err != nil {
			s.logger.Warn("services cache write failed", zap.Error(err))
		}
	}
	return services, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	services, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].ID == id {
			svc := services[i]
			return &svc, nil
		}
	}
	return nil, ErrServiceNotFound
}

func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateServices(ctx)
}

type PickerDay struct {
	Key            string `json:"key"`
	Day            int    `json:"day"`
	InCurrentMonth bool   `json:"in_current_month"`
	Selectable     bool   `json:"selectable"`
	Today          bool   `json:"today"`
}

type PickerMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Weeks [][]PickerDay `json:"weeks"`
}

// Calendar builds the public date picker for a month with per-day selectability.
func (s *CatalogService) Calendar(year int, month time.Month, now time.Time) PickerMonth {
	grid := calendar.BuildMonthGrid(year, month, s.loc)
	todayKey := calendar.DayKey(now, s.loc)

	out := PickerMonth{Year: grid.Year, Month: int(grid.Month)}
	for _, week := range grid.Weeks() {
		row := make([]PickerDay, 0, len(week))
		for _, cell := range week {
			row = append(row, PickerDay{
				Key:            cell.Key(),
				Day:            cell.Date.Day(),
				InCurrentMonth: cell.InCurrentMonth,
				Selectable:     calendar.Selectable(cell, now),
				Today:          cell.Key() == todayKey,
			})
		}
		out.Weeks = append(out.Weeks, row)
	}
	return out
}

var _ CatalogUseCase = (*CatalogService)(nil)
