package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/lib/pq"
)

var (
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrTicketConflict          = errors.New("ticket conflict: profile already has an active ticket for this tournament")
	ErrTicketProfileInvalid    = errors.New("ticket profile conflict or invalid")
	ErrTicketTournamentInvalid = errors.New("ticket tournament conflict or invalid")
)

type TicketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, ticket *models.Ticket) error
	UpdateQRCode(ctx context.Context, exec SQLExecutor, id int, qrCode string) error
	GetByID(ctx context.Context, id int) (*models.Ticket, error)
	// FindByRef ищет билет по тройке идентификаторов из QR payload.
	FindByRef(ctx context.Context, ticketID, profileID, tournamentID int) (*models.Ticket, error)
	// UpdateStatus переводит билет из from в to одним условным UPDATE.
	// Если билет уже не в статусе from, строк не затрагивается и
	// возвращается ErrTicketNotFound - вызывающий различает причину сам.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TicketStatus) error
	ListByProfile(ctx context.Context, profileID int) ([]models.Ticket, error)
	// ListByTournamentAndStatus возвращает билеты турнира в заданном статусе
	// вместе с профилями владельцев.
	ListByTournamentAndStatus(ctx context.Context, tournamentID int, status models.TicketStatus) ([]models.Ticket, error)
	CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	CountByStatus(ctx context.Context, status models.TicketStatus) (int, error)
}

type postgresTicketRepository struct {
	db *sql.DB
}

func NewPostgresTicketRepository(db *sql.DB) TicketRepository {
	return &postgresTicketRepository{db: db}
}

func (r *postgresTicketRepository) Create(ctx context.Context, exec SQLExecutor, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (profile_id, tournament_id, qr_code, status, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, purchase_date`

	err := exec.QueryRowContext(ctx, query,
		ticket.ProfileID,
		ticket.TournamentID,
		ticket.QRCode,
		ticket.Status,
		ticket.PaymentIntentID,
	).Scan(&ticket.ID, &ticket.PurchaseDate)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tickets_profile_tournament_active_key" {
					return ErrTicketConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "tickets_profile_id_fkey" {
					return ErrTicketProfileInvalid
				}
				if pqErr.Constraint == "tickets_tournament_id_fkey" {
					return ErrTicketTournamentInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresTicketRepository) UpdateQRCode(ctx context.Context, exec SQLExecutor, id int, qrCode string) error {
	query := `UPDATE tickets SET qr_code = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, qrCode, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTicketNotFound)
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id int) (*models.Ticket, error) {
	query := `
		SELECT id, profile_id, tournament_id, qr_code, status, purchase_date, payment_intent_id
		FROM tickets
		WHERE id = $1`
	return r.scanTicket(ctx, query, id)
}

func (r *postgresTicketRepository) FindByRef(ctx context.Context, ticketID, profileID, tournamentID int) (*models.Ticket, error) {
	query := `
		SELECT id, profile_id, tournament_id, qr_code, status, purchase_date, payment_intent_id
		FROM tickets
		WHERE id = $1 AND profile_id = $2 AND tournament_id = $3`
	return r.scanTicket(ctx, query, ticketID, profileID, tournamentID)
}

func (r *postgresTicketRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TicketStatus) error {
	query := `UPDATE tickets SET status = $1 WHERE id = $2 AND status = $3`
	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTicketNotFound)
}

func (r *postgresTicketRepository) ListByProfile(ctx context.Context, profileID int) ([]models.Ticket, error) {
	query := `
		SELECT id, profile_id, tournament_id, qr_code, status, purchase_date, payment_intent_id
		FROM tickets
		WHERE profile_id = $1
		ORDER BY purchase_date DESC`

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	for rows.Next() {
		var ticket models.Ticket
		scanErr := rows.Scan(
			&ticket.ID,
			&ticket.ProfileID,
			&ticket.TournamentID,
			&ticket.QRCode,
			&ticket.Status,
			&ticket.PurchaseDate,
			&ticket.PaymentIntentID,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *postgresTicketRepository) ListByTournamentAndStatus(ctx context.Context, tournamentID int, status models.TicketStatus) ([]models.Ticket, error) {
	query := `
		SELECT
			t.id, t.profile_id, t.tournament_id, t.qr_code, t.status, t.purchase_date, t.payment_intent_id,
			p.id, p.user_id, p.name, p.bio, p.avatar_key, p.created_at, p.updated_at
		FROM tickets t
		JOIN profiles p ON p.id = t.profile_id
		WHERE t.tournament_id = $1 AND t.status = $2
		ORDER BY t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	for rows.Next() {
		var ticket models.Ticket
		var profile models.Profile
		scanErr := rows.Scan(
			&ticket.ID,
			&ticket.ProfileID,
			&ticket.TournamentID,
			&ticket.QRCode,
			&ticket.Status,
			&ticket.PurchaseDate,
			&ticket.PaymentIntentID,
			&profile.ID,
			&profile.UserID,
			&profile.Name,
			&profile.Bio,
			&profile.AvatarKey,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		ticket.Profile = &profile
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *postgresTicketRepository) CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE tournament_id = $1 AND status <> $2`
	var count int
	err := exec.QueryRowContext(ctx, query, tournamentID, models.TicketStatusCanceled).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTicketRepository) scanTicket(ctx context.Context, query string, args ...interface{}) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.ProfileID,
		&ticket.TournamentID,
		&ticket.QRCode,
		&ticket.Status,
		&ticket.PurchaseDate,
		&ticket.PaymentIntentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}
