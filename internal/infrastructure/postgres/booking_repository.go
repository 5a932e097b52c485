package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-booking/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID            string    `db:"id"`
	EventID       string    `db:"event_id"`
	UserName      string    `db:"user_name"`
	UserEmail     string    `db:"user_email"`
	NumberOfSeats int       `db:"number_of_seats"`
	BookingDate   time.Time `db:"booking_date"`
	Status        string    `db:"status"`
	PaymentStatus string    `db:"payment_status"`
	PaymentAmount float64   `db:"payment_amount"`
	PaymentMethod *string   `db:"payment_method"`
	TransactionID *string   `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID:            r.ID,
		EventID:       r.EventID,
		UserName:      r.UserName,
		UserEmail:     r.UserEmail,
		NumberOfSeats: r.NumberOfSeats,
		BookingDate:   r.BookingDate,
		Status:        booking.Status(r.Status),
		PaymentStatus: booking.PaymentStatus(r.PaymentStatus),
		PaymentAmount: r.PaymentAmount,
		PaymentMethod: r.PaymentMethod,
		TransactionID: r.TransactionID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// bookingEventRow は bookings と events を結合した行
type bookingEventRow struct {
	bookingRow
	EvID          string    `db:"ev_id"`
	EvTitle       string    `db:"ev_title"`
	EvDescription *string   `db:"ev_description"`
	EvImage       *string   `db:"ev_image"`
	EvSlug        string    `db:"ev_slug"`
	EvDate        time.Time `db:"ev_date"`
	EvTimeRange   *string   `db:"ev_time_range"`
	EvVenue       *string   `db:"ev_venue"`
	EvCapacity    int       `db:"ev_capacity"`
	EvBookedSeats int       `db:"ev_booked_seats"`
	EvPrice       float64   `db:"ev_price"`
	EvCreatedAt   time.Time `db:"ev_created_at"`
	EvUpdatedAt   time.Time `db:"ev_updated_at"`
}

func (r *bookingEventRow) toWithEvent() *booking.WithEvent {
	ev := eventRow{
		ID:          r.EvID,
		Title:       r.EvTitle,
		Description: r.EvDescription,
		Image:       r.EvImage,
		Slug:        r.EvSlug,
		Date:        r.EvDate,
		TimeRange:   r.EvTimeRange,
		Venue:       r.EvVenue,
		Capacity:    r.EvCapacity,
		BookedSeats: r.EvBookedSeats,
		Price:       r.EvPrice,
		CreatedAt:   r.EvCreatedAt,
		UpdatedAt:   r.EvUpdatedAt,
	}
	return &booking.WithEvent{
		Booking: r.bookingRow.toEntity(),
		Event:   ev.toEntity(),
	}
}

const bookingColumns = `id, event_id, user_name, user_email, number_of_seats, booking_date, status, payment_status, payment_amount, payment_method, transaction_id, created_at, updated_at`

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する。座席確保と同一トランザクションで呼ぶこと
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	query := `
		INSERT INTO bookings (event_id, user_name, user_email, number_of_seats, booking_date, status, payment_status, payment_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.EventID, b.UserName, b.UserEmail, b.NumberOfSeats, b.BookingDate,
		string(b.Status), string(b.PaymentStatus), b.PaymentAmount,
		b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var row bookingRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByUserEmail はメールアドレスに紐づく予約をイベント込みで新しい順に取得する
func (r *BookingRepository) ListByUserEmail(ctx context.Context, email string) ([]*booking.WithEvent, error) {
	query := `
		SELECT b.id, b.event_id, b.user_name, b.user_email, b.number_of_seats,
		       b.booking_date, b.status, b.payment_status, b.payment_amount,
		       b.payment_method, b.transaction_id, b.created_at, b.updated_at,
		       e.id AS ev_id, e.title AS ev_title, e.description AS ev_description,
		       e.image AS ev_image, e.slug AS ev_slug, e.date AS ev_date,
		       e.time_range AS ev_time_range, e.venue AS ev_venue,
		       e.capacity AS ev_capacity, e.booked_seats AS ev_booked_seats,
		       e.price AS ev_price, e.created_at AS ev_created_at, e.updated_at AS ev_updated_at
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_email = $1
		ORDER BY b.created_at DESC
	`

	var rows []bookingEventRow
	if err := r.db.SelectContext(ctx, &rows, query, email); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}

	result := make([]*booking.WithEvent, len(rows))
	for i := range rows {
		result[i] = rows[i].toWithEvent()
	}
	return result, nil
}

// UpdatePayment は決済状態を pending からのみ更新する。
// WHERE 句の payment_status = 'pending' が compare-and-set になっており、
// 同一予約への同時決済で両方成功することはない
func (r *BookingRepository) UpdatePayment(ctx context.Context, b *booking.Booking) error {
	query := `
		UPDATE bookings
		SET payment_status = $1, payment_method = $2, transaction_id = $3, updated_at = $4
		WHERE id = $5 AND payment_status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query,
		string(b.PaymentStatus), b.PaymentMethod, b.TransactionID, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("決済状態の更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("決済更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// 不在か終端状態かを区別する
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, b.ID); err != nil {
			return fmt.Errorf("予約存在確認に失敗しました: %w", err)
		}
		if !exists {
			return booking.ErrBookingNotFound
		}
		return booking.ErrPaymentAlreadyProcessed
	}
	return nil
}

// ListStalePending は pending のまま放置された予約を取得する
func (r *BookingRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_status = 'pending' AND created_at < $1`

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, olderThan); err != nil {
		return nil, fmt.Errorf("放置予約取得に失敗しました: %w", err)
	}

	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// MarkPaymentFailed は pending の予約を failed に遷移させる。
// スイーパーが座席返却と同一トランザクションで使用する
func (r *BookingRepository) MarkPaymentFailed(ctx context.Context, tx transaction.Tx, id string) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	query := `
		UPDATE bookings
		SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
	`
	result, err := sqlxTx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("決済失敗への遷移に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("遷移結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return booking.ErrPaymentAlreadyProcessed
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
