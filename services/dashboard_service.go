package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	ticketRepo     repositories.TicketRepository
	bracketRepo    repositories.BracketRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	ticketRepo repositories.TicketRepository,
	bracketRepo repositories.BracketRepository,
) DashboardService {
	return &dashboardService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		ticketRepo:     ticketRepo,
		bracketRepo:    bracketRepo,
	}
}

// GetStats собирает счётчики дашборда параллельно.
func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	var purchased, checkedIn int

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.userRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.UsersTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.tournamentRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count tournaments: %w", err)
		}
		stats.TournamentsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.ticketRepo.CountByStatus(gCtx, models.TicketStatusPurchased)
		if err != nil {
			return fmt.Errorf("failed to count purchased tickets: %w", err)
		}
		purchased = count
		return nil
	})
	g.Go(func() error {
		count, err := s.ticketRepo.CountByStatus(gCtx, models.TicketStatusCheckedIn)
		if err != nil {
			return fmt.Errorf("failed to count checked-in tickets: %w", err)
		}
		checkedIn = count
		return nil
	})
	g.Go(func() error {
		count, err := s.bracketRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count brackets: %w", err)
		}
		stats.BracketsGenerated = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Проданные билеты - активные: купленные плюс уже отмеченные.
	stats.TicketsSold = purchased + checkedIn
	stats.TicketsCheckedIn = checkedIn

	return stats, nil
}
