package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
)

type TicketService interface {
	// PurchaseTicket оформляет билет профиля на турнир и выдаёт подписанный
	// QR payload. Платёж проводится внешним потоком, сюда попадает только
	// его референс.
	PurchaseTicket(ctx context.Context, profileID, userID int, input PurchaseTicketInput) (*models.Ticket, error)
	ListTickets(ctx context.Context, profileID, userID int) ([]models.Ticket, error)
	CancelTicket(ctx context.Context, ticketID, userID int) (*models.Ticket, error)
}

type PurchaseTicketInput struct {
	TournamentID    int    `json:"tournament_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type ticketService struct {
	db             *sql.DB
	ticketRepo     repositories.TicketRepository
	profileRepo    repositories.ProfileRepository
	tournamentRepo repositories.TournamentRepository
	signer         *qr.Signer
}

func NewTicketService(
	db *sql.DB,
	ticketRepo repositories.TicketRepository,
	profileRepo repositories.ProfileRepository,
	tournamentRepo repositories.TournamentRepository,
	signer *qr.Signer,
) TicketService {
	return &ticketService{
		db:             db,
		ticketRepo:     ticketRepo,
		profileRepo:    profileRepo,
		tournamentRepo: tournamentRepo,
		signer:         signer,
	}
}

func (s *ticketService) PurchaseTicket(ctx context.Context, profileID, userID int, input PurchaseTicketInput) (*models.Ticket, error) {
	if strings.TrimSpace(input.PaymentIntentID) == "" {
		return nil, ErrPaymentReferenceRequired
	}

	if _, err := s.profileRepo.GetByIDForUser(ctx, profileID, userID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", input.TournamentID, err)
	}

	// Подпись QR включает id билета, поэтому вставка и запись qr_code
	// идут двумя шагами внутри одной транзакции.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sold, err := s.ticketRepo.CountActiveByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets for tournament %d: %w", tournament.ID, err)
	}
	if sold >= tournament.MaxTickets {
		return nil, ErrTournamentSoldOut
	}

	ticket := &models.Ticket{
		ProfileID:       profileID,
		TournamentID:    tournament.ID,
		Status:          models.TicketStatusPurchased,
		PaymentIntentID: strings.TrimSpace(input.PaymentIntentID),
	}

	if err := s.ticketRepo.Create(ctx, tx, ticket); err != nil {
		if errors.Is(err, repositories.ErrTicketConflict) {
			return nil, ErrTicketAlreadyActive
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	qrCode, err := s.signer.Encode(ticket.ID, ticket.ProfileID, ticket.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign qr payload for ticket %d: %w", ticket.ID, err)
	}

	if err := s.ticketRepo.UpdateQRCode(ctx, tx, ticket.ID, qrCode); err != nil {
		return nil, fmt.Errorf("failed to store qr code for ticket %d: %w", ticket.ID, err)
	}
	ticket.QRCode = qrCode

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

func (s *ticketService) ListTickets(ctx context.Context, profileID, userID int) ([]models.Ticket, error) {
	if _, err := s.profileRepo.GetByIDForUser(ctx, profileID, userID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	tickets, err := s.ticketRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for profile %d: %w", profileID, err)
	}
	return tickets, nil
}

func (s *ticketService) CancelTicket(ctx context.Context, ticketID, userID int) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket %d: %w", ticketID, err)
	}

	if _, err := s.profileRepo.GetByIDForUser(ctx, ticket.ProfileID, userID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to check ticket ownership: %w", err)
	}

	if ticket.Status != models.TicketStatusPurchased {
		return nil, ErrTicketNotCancelable
	}

	err = s.ticketRepo.UpdateStatus(ctx, s.db, ticket.ID, models.TicketStatusPurchased, models.TicketStatusCanceled)
	if err != nil {
		// Условный UPDATE ничего не затронул: статус сменился конкурентно.
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrTicketNotCancelable
		}
		return nil, fmt.Errorf("failed to cancel ticket %d: %w", ticketID, err)
	}

	ticket.Status = models.TicketStatusCanceled
	return ticket, nil
}
