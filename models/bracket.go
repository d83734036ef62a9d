package models

import "encoding/json"

// Bracket хранит сгенерированную сетку турнира как JSON-документ.
// На турнир приходится не больше одной сетки; повторная генерация
// перезаписывает bracket_data целиком.
type Bracket struct {
	ID           int             `json:"id" db:"id"`
	TournamentID int             `json:"tournament_id" db:"tournament_id"`
	BracketData  json.RawMessage `json:"bracket_data" db:"bracket_data"`
}
