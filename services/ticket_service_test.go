package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
	"github.com/lib/pq"
)

func newTicketService(t *testing.T) (TicketService, sqlmock.Sqlmock, *qr.Signer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signer := qr.NewSigner("ticket-test-secret")
	service := NewTicketService(
		db,
		repositories.NewPostgresTicketRepository(db),
		repositories.NewPostgresProfileRepository(db),
		repositories.NewPostgresTournamentRepository(db),
		signer,
	)

	return service, mock, signer
}

func profileRow(id, userID int, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "bio", "avatar_key", "created_at", "updated_at",
	}).AddRow(id, userID, name, nil, nil, time.Now(), time.Now())
}

func TestTicketService_PurchaseTicket(t *testing.T) {
	input := PurchaseTicketInput{TournamentID: 3, PaymentIntentID: "pi_123"}

	t.Run("successful purchase signs and stores qr code", func(t *testing.T) {
		service, mock, signer := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 1).
			WillReturnRows(profileRow(5, 1, "Alice"))
		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(3).
			WillReturnRows(tournamentRow(3, "Summer Cup", 16))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).
			WithArgs(3, string(models.TicketStatusCanceled)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery(`INSERT INTO tickets`).
			WithArgs(5, 3, "", string(models.TicketStatusPurchased), "pi_123").
			WillReturnRows(sqlmock.NewRows([]string{"id", "purchase_date"}).AddRow(10, time.Now()))
		expectedQR, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)
		mock.ExpectExec(`UPDATE tickets SET qr_code`).
			WithArgs(expectedQR, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ticket, err := service.PurchaseTicket(context.Background(), 5, 1, input)
		require.NoError(t, err)
		require.Equal(t, 10, ticket.ID)
		require.Equal(t, models.TicketStatusPurchased, ticket.Status)
		require.Equal(t, expectedQR, ticket.QRCode)

		payload, err := signer.Decode(ticket.QRCode)
		require.NoError(t, err)
		require.Equal(t, 10, payload.TicketID)
		require.Equal(t, 5, payload.ProfileID)
		require.Equal(t, 3, payload.TournamentID)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tournament sold out", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 1).
			WillReturnRows(profileRow(5, 1, "Alice"))
		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(3).
			WillReturnRows(tournamentRow(3, "Summer Cup", 16))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).
			WithArgs(3, string(models.TicketStatusCanceled)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(16))
		mock.ExpectRollback()

		_, err := service.PurchaseTicket(context.Background(), 5, 1, input)
		require.ErrorIs(t, err, ErrTournamentSoldOut)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("active ticket already exists", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 1).
			WillReturnRows(profileRow(5, 1, "Alice"))
		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(3).
			WillReturnRows(tournamentRow(3, "Summer Cup", 16))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).
			WithArgs(3, string(models.TicketStatusCanceled)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery(`INSERT INTO tickets`).
			WithArgs(5, 3, "", string(models.TicketStatusPurchased), "pi_123").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "tickets_profile_tournament_active_key"})
		mock.ExpectRollback()

		_, err := service.PurchaseTicket(context.Background(), 5, 1, input)
		require.ErrorIs(t, err, ErrTicketAlreadyActive)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("profile must belong to the user", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 2).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "name", "bio", "avatar_key", "created_at", "updated_at",
			}))

		_, err := service.PurchaseTicket(context.Background(), 5, 2, input)
		require.ErrorIs(t, err, ErrProfileNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("payment reference required", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		_, err := service.PurchaseTicket(context.Background(), 5, 1, PurchaseTicketInput{TournamentID: 3})
		require.ErrorIs(t, err, ErrPaymentReferenceRequired)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTicketService_CancelTicket(t *testing.T) {
	t.Run("cancels a purchased ticket", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10).
			WillReturnRows(ticketRow(10, 5, 3, "qr", models.TicketStatusPurchased))
		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 1).
			WillReturnRows(profileRow(5, 1, "Alice"))
		mock.ExpectExec(`UPDATE tickets SET status`).
			WithArgs(string(models.TicketStatusCanceled), 10, string(models.TicketStatusPurchased)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ticket, err := service.CancelTicket(context.Background(), 10, 1)
		require.NoError(t, err)
		require.Equal(t, models.TicketStatusCanceled, ticket.Status)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("checked-in ticket cannot be canceled", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10).
			WillReturnRows(ticketRow(10, 5, 3, "qr", models.TicketStatusCheckedIn))
		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 1).
			WillReturnRows(profileRow(5, 1, "Alice"))

		_, err := service.CancelTicket(context.Background(), 10, 1)
		require.ErrorIs(t, err, ErrTicketNotCancelable)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other user's ticket is forbidden", func(t *testing.T) {
		service, mock, _ := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10).
			WillReturnRows(ticketRow(10, 5, 3, "qr", models.TicketStatusPurchased))
		mock.ExpectQuery(`SELECT (.+) FROM profiles`).
			WithArgs(5, 2).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "name", "bio", "avatar_key", "created_at", "updated_at",
			}))

		_, err := service.CancelTicket(context.Background(), 10, 2)
		require.ErrorIs(t, err, ErrForbiddenOperation)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
