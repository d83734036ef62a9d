package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bekzat-dev/tournament-app/brackets"
	"github.com/bekzat-dev/tournament-app/live"
	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
)

type BracketService interface {
	// GenerateBracket строит сетку из отметившихся участников турнира.
	// Повторный вызов перезаписывает существующую сетку.
	GenerateBracket(ctx context.Context, tournamentID int) (*models.Bracket, error)
	GetBracketByTournament(ctx context.Context, tournamentID int) (*models.Bracket, error)
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	ticketRepo     repositories.TicketRepository
	bracketRepo    repositories.BracketRepository
	generator      brackets.Generator
	hub            *live.Hub
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	ticketRepo repositories.TicketRepository,
	bracketRepo repositories.BracketRepository,
	generator brackets.Generator,
	hub *live.Hub,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		ticketRepo:     ticketRepo,
		bracketRepo:    bracketRepo,
		generator:      generator,
		hub:            hub,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (*models.Bracket, error) {
	var tickets []models.Ticket

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tickets, err = s.ticketRepo.ListByTournamentAndStatus(gCtx, tournamentID, models.TicketStatusCheckedIn)
		if err != nil {
			return fmt.Errorf("failed to list checked-in tickets for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	players := make([]brackets.Player, 0, len(tickets))
	for _, ticket := range tickets {
		player := brackets.Player{ProfileID: ticket.ProfileID}
		if ticket.Profile != nil {
			player.Name = ticket.Profile.Name
		}
		players = append(players, player)
	}

	generated, err := s.generator.Generate(players)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughPlayers) {
			return nil, ErrInsufficientParticipants
		}
		return nil, fmt.Errorf("failed to generate bracket for tournament %d: %w", tournamentID, err)
	}

	data, err := json.Marshal(generated)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bracket for tournament %d: %w", tournamentID, err)
	}

	bracket := &models.Bracket{
		TournamentID: tournamentID,
		BracketData:  data,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.bracketRepo.Upsert(ctx, tx, bracket); err != nil {
		if errors.Is(err, repositories.ErrBracketTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to save bracket for tournament %d: %w", tournamentID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), live.Event{
			Type:    live.EventBracketGenerated,
			Payload: bracket,
		})
	}

	return bracket, nil
}

func (s *bracketService) GetBracketByTournament(ctx context.Context, tournamentID int) (*models.Bracket, error) {
	bracket, err := s.bracketRepo.GetByTournamentID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to get bracket for tournament %d: %w", tournamentID, err)
	}
	return bracket, nil
}
