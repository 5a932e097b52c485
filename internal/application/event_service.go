package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking/internal/domain/event"
	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking/internal/pkg/logger"
)

// availabilityCacheTTL は残席キャッシュの有効期間
const availabilityCacheTTL = 30 * time.Second

// EventService はイベントのCRUDと残席照会を担う
type EventService struct {
	eventRepo event.Repository
	cache     *redisinfra.AvailabilityCache // nil可
}

// NewEventService はEventServiceを作成する
func NewEventService(eventRepo event.Repository, cache *redisinfra.AvailabilityCache) *EventService {
	return &EventService{eventRepo: eventRepo, cache: cache}
}

// CreateEventInput はイベント作成の入力
type CreateEventInput struct {
	Title       string
	Description string
	Image       string
	Slug        string
	Date        time.Time
	Time        string
	Venue       string
	Capacity    int
	Price       float64
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Title, input.Description, input.Image, input.Slug, input.Time, input.Venue, input.Date, input.Capacity, input.Price)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		if errors.Is(err, event.ErrSlugAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) GetEventBySlug(ctx context.Context, slug string) (*event.Event, error) {
	return s.eventRepo.GetBySlug(ctx, slug)
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

// UpdateEventInput はイベント更新の入力
type UpdateEventInput struct {
	ID          string
	Title       string
	Description string
	Image       string
	Slug        string
	Date        time.Time
	Time        string
	Venue       string
	Capacity    int
	Price       float64
}

// UpdateEvent はイベントの属性を更新する。BookedSeats は受付判定のみが変更する
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	e.Title = input.Title
	e.Description = input.Description
	e.Image = input.Image
	e.Slug = input.Slug
	e.Date = input.Date
	e.Time = input.Time
	e.Venue = input.Venue
	e.Capacity = input.Capacity
	e.Price = input.Price
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, e.ID)
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

// GetAvailableSeats は残席数を返す。キャッシュがあれば優先し、
// ミス時はDBから読んでキャッシュに載せる
func (s *EventService) GetAvailableSeats(ctx context.Context, id string) (int, error) {
	if s.cache != nil {
		if count, err := s.cache.GetAvailableSeats(ctx, id); err == nil {
			return count, nil
		} else if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("残席キャッシュの取得に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	available := e.AvailableSeats()

	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, id, available, availabilityCacheTTL); err != nil {
			logger.Warn("残席キャッシュの保存に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}
	return available, nil
}

func (s *EventService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("残席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}
