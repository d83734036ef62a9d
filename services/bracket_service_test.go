package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bekzat-dev/tournament-app/brackets"
	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
)

func newBracketService(t *testing.T) (BracketService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Турнир и участники читаются параллельно, порядок запросов
	// недетерминирован.
	mock.MatchExpectationsInOrder(false)

	service := NewBracketService(
		db,
		repositories.NewPostgresTournamentRepository(db),
		repositories.NewPostgresTicketRepository(db),
		repositories.NewPostgresBracketRepository(db),
		brackets.NewSeededSingleEliminationGenerator(42),
		nil,
	)

	return service, mock
}

func tournamentRow(id int, name string, maxTickets int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "date", "location", "max_tickets", "price", "created_at",
	}).AddRow(id, name, nil, time.Now().Add(24*time.Hour), nil, maxTickets, 25.0, time.Now())
}

func checkedInTicketRows(tournamentID int, profiles map[int]string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "profile_id", "tournament_id", "qr_code", "status", "purchase_date", "payment_intent_id",
		"id", "user_id", "name", "bio", "avatar_key", "created_at", "updated_at",
	})
	ticketID := 0
	for profileID, name := range profiles {
		ticketID++
		rows.AddRow(
			ticketID, profileID, tournamentID, "qr", string(models.TicketStatusCheckedIn), time.Now(), "pi_test",
			profileID, 1, name, nil, nil, time.Now(), time.Now(),
		)
	}
	return rows
}

func TestBracketService_GenerateBracket(t *testing.T) {
	t.Run("generates and stores bracket from checked-in players", func(t *testing.T) {
		service, mock := newBracketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(3).
			WillReturnRows(tournamentRow(3, "Summer Cup", 16))
		mock.ExpectQuery(`SELECT (.+) FROM tickets t`).
			WithArgs(3, string(models.TicketStatusCheckedIn)).
			WillReturnRows(checkedInTicketRows(3, map[int]string{
				5: "Alice",
				6: "Bob",
				7: "Carol",
			}))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO brackets`).
			WithArgs(3, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		bracket, err := service.GenerateBracket(context.Background(), 3)
		require.NoError(t, err)
		require.Equal(t, 1, bracket.ID)
		require.Equal(t, 3, bracket.TournamentID)

		var generated brackets.Bracket
		require.NoError(t, json.Unmarshal(bracket.BracketData, &generated))
		require.Len(t, generated.Rounds, 2)
		require.Len(t, generated.Rounds[0].Matches, 2)
		require.Len(t, generated.Rounds[1].Matches, 1)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires at least two checked-in players", func(t *testing.T) {
		service, mock := newBracketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(3).
			WillReturnRows(tournamentRow(3, "Summer Cup", 16))
		mock.ExpectQuery(`SELECT (.+) FROM tickets t`).
			WithArgs(3, string(models.TicketStatusCheckedIn)).
			WillReturnRows(checkedInTicketRows(3, map[int]string{5: "Alice"}))

		_, err := service.GenerateBracket(context.Background(), 3)
		require.ErrorIs(t, err, ErrInsufficientParticipants)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tournament not found", func(t *testing.T) {
		service, mock := newBracketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tournaments`).
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "description", "date", "location", "max_tickets", "price", "created_at",
			}))
		mock.ExpectQuery(`SELECT (.+) FROM tickets t`).
			WithArgs(99, string(models.TicketStatusCheckedIn)).
			WillReturnRows(checkedInTicketRows(99, nil))

		_, err := service.GenerateBracket(context.Background(), 99)
		require.ErrorIs(t, err, ErrTournamentNotFound)
	})
}

func TestBracketService_GetBracketByTournament(t *testing.T) {
	t.Run("returns stored bracket", func(t *testing.T) {
		service, mock := newBracketService(t)

		data := []byte(`{"rounds":[]}`)
		mock.ExpectQuery(`SELECT (.+) FROM brackets`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "bracket_data"}).
				AddRow(1, 3, data))

		bracket, err := service.GetBracketByTournament(context.Background(), 3)
		require.NoError(t, err)
		require.Equal(t, 1, bracket.ID)
		require.JSONEq(t, string(data), string(bracket.BracketData))

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not generated yet", func(t *testing.T) {
		service, mock := newBracketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM brackets`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "bracket_data"}))

		_, err := service.GetBracketByTournament(context.Background(), 3)
		require.ErrorIs(t, err, ErrBracketNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
