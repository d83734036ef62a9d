package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bekzat-dev/tournament-app/live"
	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
)

type CheckinService interface {
	// CheckIn проверяет подпись QR payload и переводит билет в checked_in.
	// Подпись валидируется до любых обращений к базе.
	CheckIn(ctx context.Context, qrData string) (*CheckinResult, error)
}

type CheckinResult struct {
	TicketID     int                 `json:"ticket_id"`
	ProfileID    int                 `json:"profile_id"`
	TournamentID int                 `json:"tournament_id"`
	Status       models.TicketStatus `json:"status"`
}

type checkinService struct {
	db         *sql.DB
	ticketRepo repositories.TicketRepository
	signer     *qr.Signer
	hub        *live.Hub
}

func NewCheckinService(db *sql.DB, ticketRepo repositories.TicketRepository, signer *qr.Signer, hub *live.Hub) CheckinService {
	return &checkinService{
		db:         db,
		ticketRepo: ticketRepo,
		signer:     signer,
		hub:        hub,
	}
}

func (s *checkinService) CheckIn(ctx context.Context, qrData string) (*CheckinResult, error) {
	payload, err := s.signer.Decode(qrData)
	if err != nil {
		switch {
		case errors.Is(err, qr.ErrMalformedPayload):
			return nil, ErrMalformedQRPayload
		case errors.Is(err, qr.ErrInvalidSignature):
			return nil, ErrInvalidQRSignature
		default:
			return nil, fmt.Errorf("failed to decode qr payload: %w", err)
		}
	}

	ticket, err := s.ticketRepo.FindByRef(ctx, payload.TicketID, payload.ProfileID, payload.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket %d: %w", payload.TicketID, err)
	}

	switch ticket.Status {
	case models.TicketStatusCheckedIn:
		return nil, ErrTicketAlreadyCheckedIn
	case models.TicketStatusCanceled:
		return nil, ErrTicketCanceled
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = s.ticketRepo.UpdateStatus(ctx, tx, ticket.ID, models.TicketStatusPurchased, models.TicketStatusCheckedIn)
	if err != nil {
		// Повторный скан успел раньше: условный UPDATE ничего не нашёл.
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrTicketAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to check in ticket %d: %w", ticket.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &CheckinResult{
		TicketID:     ticket.ID,
		ProfileID:    ticket.ProfileID,
		TournamentID: ticket.TournamentID,
		Status:       models.TicketStatusCheckedIn,
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.TournamentRoom(ticket.TournamentID), live.Event{
			Type:    live.EventTicketCheckedIn,
			Payload: result,
		})
	}

	return result, nil
}
