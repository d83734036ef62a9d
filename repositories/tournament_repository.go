package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bekzat-dev/tournament-app/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

// TournamentFilter задаёт фильтры и пагинацию для списка турниров.
type TournamentFilter struct {
	Search   *string // подстрока имени, без учёта регистра
	Location *string
	Limit    int
	Offset   int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, date, location, max_tickets, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.Date,
		tournament.Location,
		tournament.MaxTickets,
		tournament.Price,
	).Scan(&tournament.ID, &tournament.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, description, date, location, max_tickets, price, created_at
		FROM tournaments
		WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Description,
		&tournament.Date,
		&tournament.Location,
		&tournament.MaxTickets,
		&tournament.Price,
		&tournament.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argID))
		args = append(args, "%"+*filter.Search+"%")
		argID++
	}
	if filter.Location != nil && *filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location ILIKE $%d", argID))
		args = append(args, "%"+*filter.Location+"%")
		argID++
	}

	query := `
		SELECT id, name, description, date, location, max_tickets, price, created_at
		FROM tournaments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var tournament models.Tournament
		scanErr := rows.Scan(
			&tournament.ID,
			&tournament.Name,
			&tournament.Description,
			&tournament.Date,
			&tournament.Location,
			&tournament.MaxTickets,
			&tournament.Price,
			&tournament.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, tournament)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			date = $3,
			location = $4,
			max_tickets = $5,
			price = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.Date,
		tournament.Location,
		tournament.MaxTickets,
		tournament.Price,
		tournament.ID,
	)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
