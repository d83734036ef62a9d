package brackets

import (
	"errors"
	"math/rand"
	"time"
)

// ErrNotEnoughPlayers - для сетки нужно минимум два участника.
var ErrNotEnoughPlayers = errors.New("not enough players to generate a bracket (minimum 2)")

// Player - участник сетки, проекция профиля (только идентификатор и имя).
type Player struct {
	ProfileID int    `json:"profile_id"`
	Name      string `json:"name"`
}

// Match - пара в сетке. Winner нигде в системе не заполняется:
// ведение результатов матчей вне зоны ответственности сервиса.
type Match struct {
	Player1 *Player `json:"player1"`
	Player2 *Player `json:"player2"`
	Winner  *Player `json:"winner"`
}

type Round struct {
	Round   int     `json:"round"`
	Matches []Match `json:"matches"`
}

// Bracket - структура single elimination сетки, сохраняется как JSON.
type Bracket struct {
	Rounds []Round `json:"rounds"`
}

type Generator interface {
	Generate(players []Player) (*Bracket, error)

	Name() string
}

type SingleEliminationGenerator struct {
	rnd *rand.Rand
}

// NewSingleEliminationGenerator создаёт генератор со случайным посевом,
// пересеиваемым при каждом создании. Порядок участников в первом раунде
// намеренно невоспроизводим между вызовами.
func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return NewSeededSingleEliminationGenerator(time.Now().UnixNano())
}

// NewSeededSingleEliminationGenerator - детерминированный вариант для тестов
// и случаев, когда нужна воспроизводимость посева.
func NewSeededSingleEliminationGenerator(seed int64) *SingleEliminationGenerator {
	return &SingleEliminationGenerator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate строит сетку single elimination.
//
// Первый раунд: перемешанные участники разбиваются на пары по порядку;
// при нечётном количестве последний матч получает bye (player2 == nil).
// Каждый следующий раунд содержит ceil(matches/2) пустых матчей, пока
// не останется раунд из одного матча. Победители по bye не продвигаются -
// продвижение по сетке в системе не реализовано.
func (g *SingleEliminationGenerator) Generate(players []Player) (*Bracket, error) {
	n := len(players)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	shuffled := make([]Player, n)
	copy(shuffled, players)
	g.rnd.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	firstRound := make([]Match, 0, (n+1)/2)
	for i := 0; i < n; i += 2 {
		match := Match{Player1: &shuffled[i]}
		if i+1 < n {
			match.Player2 = &shuffled[i+1]
		}
		firstRound = append(firstRound, match)
	}

	bracket := &Bracket{
		Rounds: []Round{{Round: 1, Matches: firstRound}},
	}

	matchCount := len(firstRound)
	roundNum := 1
	for matchCount > 1 {
		roundNum++
		matchCount = (matchCount + 1) / 2
		bracket.Rounds = append(bracket.Rounds, Round{
			Round:   roundNum,
			Matches: make([]Match, matchCount),
		})
	}

	return bracket, nil
}
