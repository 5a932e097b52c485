package event

import "time"

// Event はイベントエンティティを表す
type Event struct {
	ID          string
	Title       string
	Description string
	Image       string
	Slug        string
	Date        time.Time
	Time        string
	Venue       string
	Capacity    int
	BookedSeats int
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(title, description, image, slug, timeRange, venue string, date time.Time, capacity int, price float64) *Event {
	now := time.Now()
	return &Event{
		Title:       title,
		Description: description,
		Image:       image,
		Slug:        slug,
		Date:        date,
		Time:        timeRange,
		Venue:       venue,
		Capacity:    capacity,
		BookedSeats: 0,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Slug == "" {
		return ErrSlugRequired
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.BookedSeats < 0 || e.BookedSeats > e.Capacity {
		return ErrInvalidBookedSeats
	}
	return nil
}

// AvailableSeats は残り座席数を返す
func (e *Event) AvailableSeats() int {
	return e.Capacity - e.BookedSeats
}

// CanAccommodate は指定席数を受け入れられるかを返す
func (e *Event) CanAccommodate(seats int) bool {
	return seats >= 1 && e.BookedSeats+seats <= e.Capacity
}

// IsSoldOut は満席かを返す
func (e *Event) IsSoldOut() bool {
	return e.BookedSeats >= e.Capacity
}
