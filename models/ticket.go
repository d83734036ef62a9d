package models

import "time"

// TicketStatus соответствует ENUM ticket_status в БД.
//
// Допустимые переходы: purchased -> checked_in, purchased -> canceled.
// Из checked_in и canceled возврата нет.
type TicketStatus string

const (
	TicketStatusPurchased TicketStatus = "purchased"
	TicketStatusCheckedIn TicketStatus = "checked_in"
	TicketStatusCanceled  TicketStatus = "canceled"
)

// Ticket связывает профиль с турниром и хранит подписанный QR payload.
type Ticket struct {
	ID              int          `json:"id" db:"id"`
	ProfileID       int          `json:"profile_id" db:"profile_id"`
	TournamentID    int          `json:"tournament_id" db:"tournament_id"`
	QRCode          string       `json:"qr_code" db:"qr_code"`
	Status          TicketStatus `json:"status" db:"status"`
	PurchaseDate    time.Time    `json:"purchase_date" db:"purchase_date"`
	PaymentIntentID string       `json:"payment_intent_id" db:"payment_intent_id"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Profile    *Profile    `json:"profile,omitempty" db:"-"`
	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}
