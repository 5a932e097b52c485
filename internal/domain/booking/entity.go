package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus は決済の状態を表す
// pending が初期状態、completed / failed が終端状態
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Booking は予約エンティティを表す
// PaymentAmount は作成時の event.Price × NumberOfSeats で固定され、
// その後イベント価格が変わっても再計算されない
type Booking struct {
	ID            string
	EventID       string
	UserName      string
	UserEmail     string
	NumberOfSeats int
	BookingDate   time.Time
	Status        Status
	PaymentStatus PaymentStatus
	PaymentAmount float64
	PaymentMethod *string
	TransactionID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBooking は新しい予約を作成する
func NewBooking(eventID, userName, userEmail string, numberOfSeats int, paymentAmount float64) *Booking {
	now := time.Now()
	return &Booking{
		EventID:       eventID,
		UserName:      userName,
		UserEmail:     userEmail,
		NumberOfSeats: numberOfSeats,
		BookingDate:   now,
		Status:        StatusConfirmed,
		PaymentStatus: PaymentPending,
		PaymentAmount: paymentAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.EventID == "" {
		return ErrEventIDRequired
	}
	if b.UserName == "" {
		return ErrUserNameRequired
	}
	if b.UserEmail == "" {
		return ErrUserEmailRequired
	}
	if b.NumberOfSeats < 1 {
		return ErrInvalidSeatCount
	}
	if b.PaymentAmount < 0 {
		return ErrInvalidPaymentAmount
	}
	return nil
}

// IsPaymentPending は決済が保留中かを返す
func (b *Booking) IsPaymentPending() bool {
	return b.PaymentStatus == PaymentPending
}

// CompletePayment は決済を完了状態に遷移させる
// pending 以外からの遷移は拒否する
func (b *Booking) CompletePayment(method, transactionID string) error {
	if b.PaymentStatus != PaymentPending {
		return ErrPaymentAlreadyProcessed
	}
	b.PaymentStatus = PaymentCompleted
	b.PaymentMethod = &method
	b.TransactionID = &transactionID
	b.UpdatedAt = time.Now()
	return nil
}

// FailPayment は決済を失敗状態に遷移させる
// pending 以外からの遷移は拒否する
func (b *Booking) FailPayment() error {
	if b.PaymentStatus != PaymentPending {
		return ErrPaymentAlreadyProcessed
	}
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = time.Now()
	return nil
}
