package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/arena"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const (
	defaultPollInterval = time.Second
	defaultResetDelay   = 3 * time.Second

	msgStartFailed = "failed to start the game"
	msgPollFailed  = "failed to fetch the next move"
	msgMalformed   = "the arena sent an unexpected response"
	msgTimeout     = "the arena did not respond in time"
)

type arenaClient interface {
	Start(ctx context.Context, agentA, agentB entity.AgentKind) (*arena.StartResult, error)
	Move(ctx context.Context, gameID string) (*arena.MoveResult, error)
	Stats(ctx context.Context) (entity.Stats, error)
	CheckKeys(ctx context.Context) (*arena.KeysStatus, error)
}

type statsRepo interface {
	Save(ctx context.Context, stats entity.Stats) error
	Load(ctx context.Context) (entity.Stats, error)
}

// Options tunes the controller's timers. Zero values fall back to the defaults.
type Options struct {
	PollInterval time.Duration
	ResetDelay   time.Duration
}

// Controller owns the session and game state and drives the start → poll → terminal lifecycle
// against the arena. Only one request is in flight at a time: the next poll is armed solely by
// the completion of the previous one.
type Controller struct {
	logger    *slog.Logger
	arena     arenaClient
	statsRepo statsRepo

	pollInterval time.Duration
	resetDelay   time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc
	background sync.WaitGroup

	mu          sync.Mutex
	sm          *fsm.FSM
	epoch       uint64
	epochCtx    context.Context
	epochCancel context.CancelFunc
	timer       *time.Timer
	inFlight    bool
	session     *entity.Session
	game        entity.GameState
	stats       entity.Stats
	errMsg      string
	keys        map[entity.AgentKind]bool

	notifyMu    sync.Mutex
	observersMu sync.RWMutex
	observers   map[int]func(entity.Snapshot)
	nextID      int
}

func NewController(logger *slog.Logger, arena arenaClient, statsRepo statsRepo, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = defaultResetDelay
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	epochCtx, epochCancel := context.WithCancel(baseCtx)

	that := &Controller{
		logger:       logger.With("component", "session"),
		arena:        arena,
		statsRepo:    statsRepo,
		pollInterval: opts.PollInterval,
		resetDelay:   opts.ResetDelay,
		baseCtx:      baseCtx,
		baseCancel:   baseCancel,
		epochCtx:     epochCtx,
		epochCancel:  epochCancel,
		game:         entity.InitialGameState(),
		observers:    make(map[int]func(entity.Snapshot)),
	}
	that.sm = newStateMachine(that.enterState)

	return that
}

// Start - creates a session on the arena and begins polling. Only allowed while awaiting setup
// with no request in flight.
func (that *Controller) Start(ctx context.Context, agentA, agentB entity.AgentKind) error {
	log := that.logger.With("method", "Start", "agentA", agentA, "agentB", agentB)

	if !agentA.IsValid() || !agentB.IsValid() {
		return fmt.Errorf("%w: %q vs %q", entity.ErrUnknownAgentKind, agentA, agentB)
	}

	that.mu.Lock()
	if that.phaseLocked() != entity.PhaseAwaitingSetup || that.inFlight {
		that.mu.Unlock()
		return apperror.ErrSessionActive
	}

	that.fire(eventStart)
	that.inFlight = true
	that.errMsg = ""
	epoch := that.epoch
	epochCtx := that.epochCtx
	that.mu.Unlock()
	that.notify()

	// a reset while the request is pending aborts it
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(epochCtx, cancel)
	defer stop()

	result, err := that.arena.Start(reqCtx, agentA, agentB)

	that.mu.Lock()
	if epoch != that.epoch {
		that.mu.Unlock()
		log.Info("discarding start response after reset")
		return apperror.ErrStaleResponse
	}

	that.inFlight = false

	if err != nil {
		that.errMsg = userMessage(err, msgStartFailed)
		that.fire(eventStartFailed)
		that.mu.Unlock()
		that.notify()

		log.Error("failed to start game", "error", err)
		return fmt.Errorf("%w: %w", apperror.ErrStartFailed, err)
	}

	that.session = &entity.Session{
		ID:     result.GameID,
		AgentA: agentA,
		AgentB: agentB,
	}
	that.game = entity.InitialGameState()
	that.game.Board = result.Board
	that.game.CurrentSide = result.CurrentSide

	that.fire(eventStarted)
	that.armLocked(that.pollInterval, that.poll, epoch)
	that.mu.Unlock()
	that.notify()

	log.Info("game started", "gameID", result.GameID, "currentSide", result.CurrentSide)

	return nil
}

// poll - one scheduled tick. Preconditions are re-checked here because the timer may fire after
// the state it was armed for has changed.
func (that *Controller) poll(epoch uint64) {
	log := that.logger.With("method", "poll")

	that.mu.Lock()
	if !that.canPollLocked(epoch) {
		that.mu.Unlock()
		return
	}

	that.timer = nil
	that.inFlight = true
	gameID := that.session.ID
	ctx := that.epochCtx
	that.mu.Unlock()
	that.notify()

	log = log.With("gameID", gameID)

	result, err := that.arena.Move(ctx, gameID)

	that.mu.Lock()
	if epoch != that.epoch {
		that.mu.Unlock()
		log.Debug("discarding move response after reset")
		return
	}

	that.inFlight = false

	if err != nil {
		that.errMsg = userMessage(err, msgPollFailed)
		that.fire(eventPollFailed)
		if !that.game.IsOver {
			that.armLocked(that.resetDelay, that.autoReset, epoch)
		}
		that.mu.Unlock()
		that.notify()

		log.Error("failed to fetch move", "error", err)
		return
	}

	that.applyLocked(result)

	finished := that.game.IsOver
	if finished {
		that.fire(eventFinished)
	} else {
		that.armLocked(that.pollInterval, that.poll, epoch)
	}
	that.mu.Unlock()
	that.notify()

	if finished {
		log.Info("game finished", "winner", result.Winner)
		that.goBackground(that.RefreshStats)
	}
}

// autoReset - abandons the session after a failed poll, unless it was already reset by hand.
func (that *Controller) autoReset(epoch uint64) {
	that.mu.Lock()
	if epoch != that.epoch {
		that.mu.Unlock()
		return
	}

	that.resetLocked()
	that.mu.Unlock()
	that.notify()

	that.logger.Info("session abandoned after failed move")
}

// RefreshStats - replaces the stats snapshot with the arena's. Failures are logged and never
// surface to the caller; when nothing is held locally yet the cached snapshot is used instead.
func (that *Controller) RefreshStats(ctx context.Context) {
	log := that.logger.With("method", "RefreshStats")

	stats, err := that.arena.Stats(ctx)
	if err != nil {
		log.Warn("failed to fetch stats", "error", err)
		that.seedStatsFromRepo(ctx)
		return
	}

	that.mu.Lock()
	that.stats = stats
	that.mu.Unlock()
	that.notify()

	if err = that.statsRepo.Save(ctx, stats); err != nil {
		log.Warn("failed to cache stats", "error", err)
	}
}

func (that *Controller) seedStatsFromRepo(ctx context.Context) {
	log := that.logger.With("method", "seedStatsFromRepo")

	that.mu.Lock()
	hasStats := that.stats != nil
	that.mu.Unlock()

	if hasStats {
		return
	}

	cached, err := that.statsRepo.Load(ctx)
	if errors.Is(err, apperror.ErrStatsNotCached) {
		return
	}

	if err != nil {
		log.Warn("failed to load cached stats", "error", err)
		return
	}

	that.mu.Lock()
	if that.stats != nil {
		that.mu.Unlock()
		return
	}
	that.stats = cached
	that.mu.Unlock()
	that.notify()

	log.Info("using cached stats snapshot")
}

// CheckKeys - asks the arena which agents have credentials configured, for display on the setup form.
func (that *Controller) CheckKeys(ctx context.Context) error {
	status, err := that.arena.CheckKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to check api keys: %w", err)
	}

	that.mu.Lock()
	that.keys = status.Agents
	that.mu.Unlock()
	that.notify()

	return nil
}

// Reset - drops the session and returns to setup. Safe to call at any time; a request still in
// flight is cancelled and its response ignored.
func (that *Controller) Reset() {
	that.mu.Lock()
	that.resetLocked()
	that.mu.Unlock()
	that.notify()
}

// Close - stops timers, cancels in-flight requests and waits for background work.
func (that *Controller) Close() {
	that.mu.Lock()
	that.stopTimerLocked()
	that.epochCancel()
	that.baseCancel()
	that.mu.Unlock()

	that.background.Wait()
}

// Snapshot - deep copy of the current state.
func (that *Controller) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := entity.Snapshot{
		Phase:   that.phaseLocked(),
		Game:    that.game.Clone(),
		Stats:   that.stats.Clone(),
		Error:   that.errMsg,
		Loading: that.inFlight && that.errMsg == "",
	}

	if that.session != nil {
		session := *that.session
		snapshot.Session = &session
	}

	if that.keys != nil {
		snapshot.KeysStatus = make(map[entity.AgentKind]bool, len(that.keys))
		for kind, ok := range that.keys {
			snapshot.KeysStatus[kind] = ok
		}
	}

	return snapshot
}

// Subscribe - registers fn to receive a snapshot after every change. Deliveries are serialized
// and in order; fn must not call back into the controller's mutating methods.
func (that *Controller) Subscribe(fn func(entity.Snapshot)) (unsubscribe func()) {
	that.observersMu.Lock()
	id := that.nextID
	that.nextID++
	that.observers[id] = fn
	that.observersMu.Unlock()

	return func() {
		that.observersMu.Lock()
		delete(that.observers, id)
		that.observersMu.Unlock()
	}
}

func (that *Controller) notify() {
	that.notifyMu.Lock()
	defer that.notifyMu.Unlock()

	snapshot := that.Snapshot()

	that.observersMu.RLock()
	observers := make([]func(entity.Snapshot), 0, len(that.observers))
	for _, fn := range that.observers {
		observers = append(observers, fn)
	}
	that.observersMu.RUnlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

func (that *Controller) canPollLocked(epoch uint64) bool {
	return epoch == that.epoch &&
		that.baseCtx.Err() == nil &&
		that.phaseLocked() == entity.PhaseActive &&
		that.session != nil &&
		!that.game.IsOver &&
		that.errMsg == "" &&
		!that.inFlight
}

// applyLocked - replaces the game state wholesale. Game-over answers carry no current player,
// so the previous side is kept.
func (that *Controller) applyLocked(result *arena.MoveResult) {
	next := entity.GameState{
		Board:        result.Board,
		CurrentSide:  that.game.CurrentSide,
		IsOver:       result.IsOver,
		Winner:       result.Winner,
		Score:        result.Score,
		MustSkipTurn: result.MustSkipTurn,
		LastMove:     result.LastMove,
	}

	if result.CurrentSide != nil {
		next.CurrentSide = *result.CurrentSide
	}

	that.game = next
}

func (that *Controller) resetLocked() {
	that.stopTimerLocked()

	that.epochCancel()
	that.epoch++
	that.epochCtx, that.epochCancel = context.WithCancel(that.baseCtx)

	that.session = nil
	that.game = entity.InitialGameState()
	that.errMsg = ""
	that.inFlight = false

	if that.phaseLocked() != entity.PhaseAwaitingSetup {
		that.fire(eventReset)
	}
}

func (that *Controller) armLocked(delay time.Duration, fn func(epoch uint64), epoch uint64) {
	that.stopTimerLocked()

	if that.baseCtx.Err() != nil {
		return
	}

	that.timer = time.AfterFunc(delay, func() { fn(epoch) })
}

func (that *Controller) stopTimerLocked() {
	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
}

func (that *Controller) goBackground(fn func(ctx context.Context)) {
	that.background.Add(1)
	go func() {
		defer that.background.Done()
		fn(that.baseCtx)
	}()
}

// userMessage - converts an error into the text shown on the error banner.
func userMessage(err error, fallback string) string {
	var remoteErr *arena.RemoteError

	switch {
	case errors.As(err, &remoteErr):
		return remoteErr.Message
	case errors.Is(err, arena.ErrMalformedResponse):
		return msgMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return fallback
	}
}
