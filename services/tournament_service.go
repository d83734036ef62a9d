package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.TournamentFilter) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
}

type CreateTournamentInput struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
	Location    *string   `json:"location"`
	MaxTickets  int       `json:"max_tickets"`
	Price       float64   `json:"price"`
}

type UpdateTournamentInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	MaxTickets  *int       `json:"max_tickets"`
	Price       *float64   `json:"price"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
}

func NewTournamentService(tournamentRepo repositories.TournamentRepository) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.MaxTickets <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.Price < 0 {
		return nil, ErrTournamentInvalidPrice
	}

	tournament := &models.Tournament{
		Name:        name,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		MaxTickets:  input.MaxTickets,
		Price:       input.Price,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.TournamentFilter) ([]models.Tournament, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.Date != nil {
		tournament.Date = *input.Date
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.MaxTickets != nil {
		if *input.MaxTickets <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		tournament.MaxTickets = *input.MaxTickets
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrTournamentInvalidPrice
		}
		tournament.Price = *input.Price
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return nil
}
