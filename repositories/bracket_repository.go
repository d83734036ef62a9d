package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/lib/pq"
)

var (
	ErrBracketNotFound          = errors.New("bracket not found")
	ErrBracketTournamentInvalid = errors.New("bracket tournament conflict or invalid")
)

type BracketRepository interface {
	// Upsert создаёт сетку турнира или целиком перезаписывает существующую.
	// На турнир приходится одна строка (UNIQUE tournament_id).
	Upsert(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, id int) (*models.Bracket, error)
	GetByTournamentID(ctx context.Context, tournamentID int) (*models.Bracket, error)
	Count(ctx context.Context) (int, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) Upsert(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error {
	query := `
		INSERT INTO brackets (tournament_id, bracket_data)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id) DO UPDATE SET bracket_data = EXCLUDED.bracket_data
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		bracket.TournamentID,
		[]byte(bracket.BracketData),
	).Scan(&bracket.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "brackets_tournament_id_fkey" {
				return ErrBracketTournamentInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	query := `
		SELECT id, tournament_id, bracket_data
		FROM brackets
		WHERE id = $1`
	return r.scanBracket(ctx, query, id)
}

func (r *postgresBracketRepository) GetByTournamentID(ctx context.Context, tournamentID int) (*models.Bracket, error) {
	query := `
		SELECT id, tournament_id, bracket_data
		FROM brackets
		WHERE tournament_id = $1`
	return r.scanBracket(ctx, query, tournamentID)
}

func (r *postgresBracketRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brackets`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresBracketRepository) scanBracket(ctx context.Context, query string, args ...interface{}) (*models.Bracket, error) {
	bracket := &models.Bracket{}
	var data []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&bracket.ID,
		&bracket.TournamentID,
		&data,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	bracket.BracketData = data
	return bracket, nil
}
