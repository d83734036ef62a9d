package models

import "time"

type Tournament struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Date        time.Time `json:"date" db:"date"`
	Location    *string   `json:"location,omitempty" db:"location"`
	MaxTickets  int       `json:"max_tickets" db:"max_tickets"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Tickets []Ticket `json:"tickets,omitempty" db:"-"`
	Bracket *Bracket `json:"bracket,omitempty" db:"-"`
}
