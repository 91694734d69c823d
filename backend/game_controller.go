package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const leaderboardWriteTimeout = 2 * time.Second

// ControllerDeps are the ports a GameController talks to. Nil members get
// harmless defaults.
type ControllerDeps struct {
	Leaderboard   LeaderboardStore
	Preferences   PreferencesPort
	Events        GameEvents
	RNG           RandomSource
	Now           func() time.Time
	LanListenAddr string
}

// GameController serialises every access to the game behind one mutex. The
// HTTP handlers, the tick loop and the LAN pump all go through it.
type GameController struct {
	mu   sync.Mutex
	game Game
	deps ControllerDeps
	lan  *lanSession
}

type preferencesPatch struct {
	Volume         *int    `json:"volume"`
	Theme          *string `json:"theme"`
	LastPlayerName *string `json:"last_player_name"`
}

func NewGameController(settings GameSettings, deps ControllerDeps) *GameController {
	if deps.Events == nil {
		deps.Events = nopEvents{}
	}
	if deps.RNG == nil {
		deps.RNG = NewRandomSource()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	gc := &GameController{deps: deps}
	gc.game.SetRandomSource(deps.RNG)
	gc.game.SetProgressSink(deps.Events.PublishProgress)
	gc.game.OnRoundEnd(gc.recordRound)
	gc.game.Reset(settings.WithMode(nonLanMode(settings.Mode)))
	return gc
}

func nonLanMode(mode GameMode) GameMode {
	if mode == ModeLAN {
		return DefaultGameSettings().Mode
	}
	return mode
}

// StartGame begins a local or AI game. LAN games start from the LAN
// handshake instead.
func (gc *GameController) StartGame(settings GameSettings) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if settings.Mode == ModeLAN {
		return ErrLanNotConnected
	}
	if gc.lan != nil {
		return ErrLanActive
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	gc.game.Reset(settings)
	gc.game.Start()
	gc.rememberPlayerName(gc.game.Settings().NameFor(gc.game.Settings().LocalSide))
	gc.publishResetLocked()
	return nil
}

func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.game.State().Status == StatusRunning && gc.game.CurrentPlayerType() != PlayerHuman {
		return false, ErrNotYourTurn.Error()
	}
	move = Move{Row: move.Row, Col: move.Col}
	applied, reason := gc.game.TryApplyMove(move)
	if !applied {
		return false, reason
	}
	if gc.lan != nil && gc.lan.peer != nil {
		gc.lan.peer.Send(lanMoveMessage(move))
	}
	gc.publishMoveLocked()
	return true, ""
}

func (gc *GameController) Undo() error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if err := gc.game.Undo(); err != nil {
		return err
	}
	gc.publishResetLocked()
	return nil
}

// Rematch starts a new round in local and AI modes. Over LAN a rematch has
// to be offered to the opponent.
func (gc *GameController) Rematch() error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != nil {
		return ErrLanActive
	}
	gc.game.Rematch()
	gc.publishResetLocked()
	return nil
}

func (gc *GameController) ResetScores() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.ResetScores()
	gc.deps.Events.PublishStatus(gc.statusLocked())
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	changed := gc.game.Tick()
	if changed {
		gc.publishMoveLocked()
	}
	gc.expireOffersLocked(gc.deps.Now())
	return changed
}

func (gc *GameController) Status() StatusResponse {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.statusLocked()
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Settings()
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) Scores() Scores {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Scores()
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

// UpdateSettings stores a new engine config and/or game settings. Either
// change starts a fresh game, so it is refused during a LAN session.
func (gc *GameController) UpdateSettings(settings *GameSettings, config *Config) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != nil {
		return ErrLanActive
	}
	if settings != nil && settings.Mode == ModeLAN {
		return ErrLanNotConnected
	}
	if settings != nil {
		if err := settings.Validate(); err != nil {
			return err
		}
	}
	if config != nil {
		configStore.Update(*config)
	}
	next := gc.game.Settings()
	if settings != nil {
		next = *settings
	}
	gc.game.Reset(next)
	gc.deps.Events.PublishSettings(settingsPayload{Settings: gc.game.Settings(), Config: GetConfig()})
	gc.publishResetLocked()
	return nil
}

func (gc *GameController) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if gc.deps.Leaderboard == nil {
		return []LeaderboardEntry{}, nil
	}
	return gc.deps.Leaderboard.Entries(ctx)
}

func (gc *GameController) Preferences() Preferences {
	if gc.deps.Preferences == nil {
		return DefaultPreferences()
	}
	return gc.deps.Preferences.Load()
}

func (gc *GameController) UpdatePreferences(patch preferencesPatch) (Preferences, error) {
	if gc.deps.Preferences == nil {
		return DefaultPreferences(), nil
	}
	return gc.deps.Preferences.Update(func(p *Preferences) {
		if patch.Volume != nil {
			p.Volume = min(max(*patch.Volume, 0), 100)
		}
		if patch.Theme != nil && strings.TrimSpace(*patch.Theme) != "" {
			p.Theme = strings.TrimSpace(*patch.Theme)
		}
		if patch.LastPlayerName != nil {
			p.LastPlayerName = strings.TrimSpace(*patch.LastPlayerName)
		}
	})
}

// Close ends any LAN session and stops a running search.
func (gc *GameController) Close() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != nil {
		gc.leaveLanLocked()
	}
	gc.game.stopThinking()
}

// recordRound runs inside Game.finishRound, so the controller lock is held.
func (gc *GameController) recordRound(state GameState, scores Scores) {
	settings := gc.game.Settings()
	if gc.deps.Leaderboard == nil || leaderboardSkipsMode(settings.Mode.Label()) {
		return
	}
	name := strings.TrimSpace(settings.NameFor(settings.LocalSide))
	if name == "" {
		name = DefaultGameSettings().XName
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaderboardWriteTimeout)
	defer cancel()
	if _, err := gc.deps.Leaderboard.Record(ctx, name, scores, settings.Mode.Label(), gc.deps.Now()); err != nil {
		log.Error().Err(err).Str("component", "leaderboard").Str("name", name).Msg("could not record round")
		return
	}
	log.Debug().
		Str("component", "leaderboard").
		Str("name", name).
		Str("status", statusToString(state.Status)).
		Int("score_x", scores.X).
		Int("score_o", scores.O).
		Msg("round recorded")
}

func (gc *GameController) rememberPlayerName(name string) {
	name = strings.TrimSpace(name)
	if gc.deps.Preferences == nil || name == "" {
		return
	}
	if _, err := gc.deps.Preferences.Update(func(p *Preferences) {
		p.LastPlayerName = name
	}); err != nil {
		log.Warn().Err(err).Str("component", "prefs").Msg("could not remember player name")
	}
}

func (gc *GameController) statusLocked() StatusResponse {
	state := gc.game.State()
	settings := gc.game.Settings()
	winningLine := []Move{}
	if state.Win.HasWinner() {
		winningLine = append(winningLine, state.Win.Cells...)
	}
	return StatusResponse{
		Settings:        settings,
		Config:          GetConfig(),
		ModeLabel:       settings.Mode.Label(),
		Board:           boardToSlice(state.Board),
		BoardSize:       state.Board.Size(),
		WinLength:       settings.WinLength,
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		Message:         state.LastMessage,
		WinningLine:     winningLine,
		Scores:          gc.game.Scores(),
		History:         historyToDTO(gc.game.History()),
		AiThinking:      gc.game.AiThinking(),
		CanUndo:         settings.Mode != ModeLAN && state.Status == StatusRunning && gc.game.History().Size() > 0,
		Lan:             gc.lanStatusLocked(),
		TurnStartedAtMs: gc.game.TurnStartedAtMs(),
	}
}

func (gc *GameController) publishMoveLocked() {
	if entry, ok := gc.game.History().Last(); ok {
		gc.deps.Events.PublishHistory(historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
	}
	gc.deps.Events.PublishStatus(gc.statusLocked())
}

func (gc *GameController) publishResetLocked() {
	state := gc.game.State()
	gc.deps.Events.PublishReset(resetPayload{
		History:         historyToDTO(gc.game.History()),
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		BoardSize:       state.Board.Size(),
		Scores:          gc.game.Scores(),
		TurnStartedAtMs: gc.game.TurnStartedAtMs(),
	})
	gc.deps.Events.PublishStatus(gc.statusLocked())
}
