package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-booking/internal/domain/event"
	"github.com/sanosuguru/go-event-booking/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	Image       *string   `db:"image"`
	Slug        string    `db:"slug"`
	Date        time.Time `db:"date"`
	TimeRange   *string   `db:"time_range"`
	Venue       *string   `db:"venue"`
	Capacity    int       `db:"capacity"`
	BookedSeats int       `db:"booked_seats"`
	Price       float64   `db:"price"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc, image, timeRange, venue string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Image != nil {
		image = *r.Image
	}
	if r.TimeRange != nil {
		timeRange = *r.TimeRange
	}
	if r.Venue != nil {
		venue = *r.Venue
	}
	return &event.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: desc,
		Image:       image,
		Slug:        r.Slug,
		Date:        r.Date,
		Time:        timeRange,
		Venue:       venue,
		Capacity:    r.Capacity,
		BookedSeats: r.BookedSeats,
		Price:       r.Price,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const eventColumns = `id, title, description, image, slug, date, time_range, venue, capacity, booked_seats, price, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, image, slug, date, time_range, venue, capacity, booked_seats, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, nullable(e.Description), nullable(e.Image), e.Slug, e.Date,
		nullable(e.Time), nullable(e.Venue), e.Capacity, e.BookedSeats, e.Price,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return event.ErrSlugAlreadyExists
		}
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetBySlug はスラッグからイベントを取得する
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を開催日昇順で取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC LIMIT $1 OFFSET $2`

	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントを更新する。booked_seats はここでは触らない
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, image = $3, slug = $4, date = $5,
		    time_range = $6, venue = $7, capacity = $8, price = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		e.Title, nullable(e.Description), nullable(e.Image), e.Slug, e.Date,
		nullable(e.Time), nullable(e.Venue), e.Capacity, e.Price, time.Now(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// ReserveSeats は booked_seats を条件付きでアトミックに加算する。
// 定員チェックと加算を単一のUPDATEで行うため、同一イベントへの同時
// リクエストが古い読み取り値を元に定員を超えることはない
func (r *EventRepository) ReserveSeats(ctx context.Context, tx transaction.Tx, eventID string, seats int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET booked_seats = booked_seats + $1, updated_at = NOW()
		WHERE id = $2 AND booked_seats + $1 <= capacity
	`
	result, err := sqlxTx.ExecContext(ctx, query, seats, eventID)
	if err != nil {
		return fmt.Errorf("座席確保に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("座席確保結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// 条件不成立：イベント不存在か定員超過かを区別する
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID); err != nil {
			return fmt.Errorf("イベント存在確認に失敗しました: %w", err)
		}
		if !exists {
			return event.ErrEventNotFound
		}
		return event.ErrNotEnoughSeats
	}
	return nil
}

// ReleaseSeats は booked_seats を減算する（下限0）
func (r *EventRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, eventID string, seats int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET booked_seats = GREATEST(booked_seats - $1, 0), updated_at = NOW()
		WHERE id = $2
	`
	result, err := sqlxTx.ExecContext(ctx, query, seats, eventID)
	if err != nil {
		return fmt.Errorf("座席返却に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("座席返却結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
