package coordinator

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mesker/trick-services/internal/comm"
	"github.com/mesker/trick-services/internal/matchsvc/broker"
	"github.com/mesker/trick-services/internal/matchsvc/game"
	"github.com/mesker/trick-services/internal/matchsvc/notify"
	"github.com/mesker/trick-services/internal/matchsvc/session"
	"github.com/mesker/trick-services/internal/matchsvc/store"
)

// Config collects the tunables of the match loop.
type Config struct {
	// GraceWindow delays the externally visible disconnect publication so
	// transient drops stay invisible to peers.
	GraceWindow time.Duration

	// RevealDelay is the pause between a trick filling up and its
	// evaluation, purely for client pacing.
	RevealDelay time.Duration

	// ReconnectWindow is advertised to peers as how long a dropped seat
	// may come back.
	ReconnectWindow time.Duration

	// MatchTTL is the age past which completed or abandoned matches are
	// swept.
	MatchTTL time.Duration

	Policy game.EvaluatorPolicy
}

func DefaultConfig() Config {
	return Config{
		GraceWindow:     5 * time.Second,
		RevealDelay:     time.Second,
		ReconnectWindow: time.Hour,
		MatchTTL:        24 * time.Hour,
		Policy:          game.DefaultEvaluatorPolicy(),
	}
}

type timerKey struct {
	matchID  string
	playerID string
	purpose  string
}

const (
	purposeDisconnectGrace = "disconnect_grace"
	purposeRoundReveal     = "round_reveal"
)

// Coordinator owns every mutable registry of the service: matches, invite
// codes, active identities, live sessions and timers. All mutation runs on
// one loop goroutine, so callbacks never race; every scheduled callback
// re-validates match, seat and status when it finally runs.
type Coordinator struct {
	cfg Config
	rng *rand.Rand

	events   chan func()
	done     chan struct{}
	stopOnce sync.Once

	matches       map[string]*game.Match
	inviteCodes   map[string]store.InviteEntry
	activePlayers map[string]string // player id -> match id
	evaluators    map[string]*game.RoundEvaluator
	sessions      map[string]*session.Session // player id -> live session
	reconnects    map[string]uint64           // player id -> reconnection counter
	timers        map[timerKey]*time.Timer

	broadcaster *notify.Broadcaster
	invites     *store.InviteStore
	archive     *store.ArchiveStore // optional
	tap         *broker.Broker      // optional
}

// New builds a coordinator. archive and tap may be nil.
func New(cfg Config, invites *store.InviteStore, archive *store.ArchiveStore, tap *broker.Broker) *Coordinator {
	c := &Coordinator{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		events:        make(chan func(), 256),
		done:          make(chan struct{}),
		matches:       make(map[string]*game.Match),
		inviteCodes:   make(map[string]store.InviteEntry),
		activePlayers: make(map[string]string),
		evaluators:    make(map[string]*game.RoundEvaluator),
		sessions:      make(map[string]*session.Session),
		reconnects:    make(map[string]uint64),
		timers:        make(map[timerKey]*time.Timer),
		invites:       invites,
		archive:       archive,
		tap:           tap,
	}
	c.broadcaster = notify.NewBroadcaster(c)
	c.loadInviteCodes()
	return c
}

// loadInviteCodes reads the persisted map. Codes surviving a restart point
// at matches that no longer exist and are therefore invalid: they are
// pruned and the pruned document written back.
func (c *Coordinator) loadInviteCodes() {
	if c.invites == nil {
		return
	}
	codes, err := c.invites.Load()
	if err != nil {
		log.Errorf("failed to load invite codes: %v", err)
		return
	}
	stale := 0
	for code, entry := range codes {
		if _, ok := c.matches[entry.MatchID]; !ok {
			stale++
			continue
		}
		c.inviteCodes[code] = entry
	}
	if stale > 0 {
		log.Infof("pruned %d stale invite codes from persistence", stale)
		c.saveInviteCodes()
	}
}

func (c *Coordinator) saveInviteCodes() {
	if c.invites == nil {
		return
	}
	if err := c.invites.Save(c.inviteCodes); err != nil {
		log.Errorf("failed to persist invite codes: %v", err)
	}
}

// Run consumes dispatched callbacks until Stop. It is the single mutator of
// all coordinator state.
func (c *Coordinator) Run() {
	for {
		select {
		case fn := <-c.events:
			fn()
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// dispatch posts a callback onto the loop; dropped silently after Stop.
func (c *Coordinator) dispatch(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// call runs fn on the loop and waits for it. The return reports whether fn
// actually ran; it did not if the loop was stopped first.
func (c *Coordinator) call(fn func()) bool {
	doneCh := make(chan struct{})
	c.dispatch(func() {
		fn()
		close(doneCh)
	})
	select {
	case <-doneCh:
		return true
	case <-c.done:
		return false
	}
}

// SessionFor implements notify.SessionResolver. Loop-only.
func (c *Coordinator) SessionFor(playerID string) (notify.Sender, bool) {
	s, ok := c.sessions[playerID]
	if !ok {
		return nil, false
	}
	return s, true
}

// schedule arms a cancellable task. Re-arming the same key replaces the
// pending timer; a fired timer whose key was superseded is a no-op.
func (c *Coordinator) schedule(key timerKey, d time.Duration, fn func()) {
	c.cancelTimer(key)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.dispatch(func() {
			if c.timers[key] != t {
				return
			}
			delete(c.timers, key)
			fn()
		})
	})
	c.timers[key] = t
}

func (c *Coordinator) cancelTimer(key timerKey) {
	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
}

func (c *Coordinator) cancelPlayerTimers(matchID, playerID string) {
	c.cancelTimer(timerKey{matchID: matchID, playerID: playerID, purpose: purposeDisconnectGrace})
}

const inviteCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (c *Coordinator) generateInviteCode() string {
	for {
		var b strings.Builder
		for i := 0; i < 6; i++ {
			b.WriteByte(inviteCodeChars[c.rng.Intn(len(inviteCodeChars))])
		}
		code := b.String()
		if _, taken := c.inviteCodes[code]; !taken {
			return code
		}
	}
}

// MatchCreated is the result of CreateMatch, one invite code per team.
type MatchCreated struct {
	MatchID   string
	TeamSize  int
	Team1Code string
	Team2Code string
}

// CreateMatch registers a new waiting match with two unique invite codes.
func (c *Coordinator) CreateMatch(teamSize int) (*MatchCreated, error) {
	if teamSize < 1 || teamSize > 3 {
		return nil, ErrTeamSize
	}

	var res *MatchCreated
	ran := c.call(func() {
		matchID := uuid.New().String()
		team1Code := c.generateInviteCode()
		c.inviteCodes[team1Code] = store.InviteEntry{MatchID: matchID, TeamID: game.Team1}
		team2Code := c.generateInviteCode()
		c.inviteCodes[team2Code] = store.InviteEntry{MatchID: matchID, TeamID: game.Team2}

		m := game.NewMatch(matchID, teamSize, game.InviteCodes{Team1: team1Code, Team2: team2Code})
		c.matches[matchID] = m
		c.saveInviteCodes()

		c.publishTap(m, comm.NewEnvelope(comm.TypeMatchCreated, map[string]interface{}{
			"matchId":  matchID,
			"teamSize": teamSize,
		}, nil))

		log.Infof("match %s created with team size %d (codes %s / %s)", matchID, teamSize, team1Code, team2Code)
		res = &MatchCreated{MatchID: matchID, TeamSize: teamSize, Team1Code: team1Code, Team2Code: team2Code}
	})
	if !ran {
		return nil, ErrStopped
	}
	return res, nil
}

// removeMatch drops a match and everything keyed by it. Callers have already
// broadcast whatever the occasion called for.
func (c *Coordinator) removeMatch(m *game.Match) {
	delete(c.inviteCodes, m.InviteCodes.Team1)
	delete(c.inviteCodes, m.InviteCodes.Team2)
	c.saveInviteCodes()

	for playerID := range m.Players {
		delete(c.activePlayers, playerID)
		delete(c.reconnects, playerID)
		c.cancelPlayerTimers(m.ID, playerID)
	}
	c.cancelTimer(timerKey{matchID: m.ID, purpose: purposeRoundReveal})

	delete(c.evaluators, m.ID)
	delete(c.matches, m.ID)
}

// archiveMatch writes the terminal summary off-loop; the archive is an
// optional sink and never blocks the game.
func (c *Coordinator) archiveMatch(m *game.Match, winner game.TeamID) {
	if c.archive == nil {
		return
	}
	rec := &store.MatchArchive{
		MatchID:     m.ID,
		Status:      m.Status,
		TeamSize:    m.TeamSize,
		WinnerTeam:  winner,
		Team1Points: m.Scores.Team1,
		Team2Points: m.Scores.Team2,
		Rounds:      m.RoundWins.Team1 + m.RoundWins.Team2,
		Duration:    time.Since(m.CreatedAt),
		CompletedAt: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.archive.InsertMatch(ctx, rec); err != nil {
			log.Errorf("match archive insert failed: %v", err)
		}
	}()
}

func (c *Coordinator) publishTap(m *game.Match, env comm.Envelope) {
	if c.tap == nil {
		return
	}
	c.tap.PublishMatchEvent(m.ID, env)
}

// Stats is the aggregate surface for the health endpoint.
type Stats struct {
	TotalMatches      int `json:"totalMatches"`
	ActiveMatches     int `json:"activeMatches"`
	WaitingMatches    int `json:"waitingMatches"`
	PausedMatches     int `json:"pausedMatches"`
	CompletedMatches  int `json:"completedMatches"`
	CancelledMatches  int `json:"cancelledMatches"`
	ActivePlayers     int `json:"activePlayers"`
	ActiveInviteCodes int `json:"activeInviteCodes"`
}

func (c *Coordinator) Stats() Stats {
	var s Stats
	c.call(func() {
		s.TotalMatches = len(c.matches)
		for _, m := range c.matches {
			switch m.Status {
			case game.StatusActive:
				s.ActiveMatches++
			case game.StatusWaiting:
				s.WaitingMatches++
			case game.StatusPaused:
				s.PausedMatches++
			case game.StatusCompleted:
				s.CompletedMatches++
			case game.StatusCancelled:
				s.CancelledMatches++
			}
		}
		s.ActivePlayers = len(c.activePlayers)
		s.ActiveInviteCodes = len(c.inviteCodes)
	})
	return s
}

// AdminMatch is the per-match detail for the operator route.
type AdminMatch struct {
	ID        string      `json:"id"`
	Status    game.Status `json:"status"`
	TeamSize  int         `json:"teamSize"`
	Players   int         `json:"players"`
	Round     int         `json:"round"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (c *Coordinator) MatchList() []AdminMatch {
	var out []AdminMatch
	c.call(func() {
		for _, m := range c.matches {
			out = append(out, AdminMatch{
				ID:        m.ID,
				Status:    m.Status,
				TeamSize:  m.TeamSize,
				Players:   len(m.Players),
				Round:     m.CurrentRound(),
				CreatedAt: m.CreatedAt,
			})
		}
	})
	return out
}

// SweepExpired removes completed or abandoned matches older than MatchTTL.
func (c *Coordinator) SweepExpired() {
	c.dispatch(func() {
		var expired []*game.Match
		for _, m := range c.matches {
			if time.Since(m.CreatedAt) < c.cfg.MatchTTL {
				continue
			}
			if m.Status.Terminal() || !m.AllConnected() {
				expired = append(expired, m)
			}
		}
		for _, m := range expired {
			c.removeMatch(m)
		}
		if len(expired) > 0 {
			log.Infof("swept %d expired matches", len(expired))
		}
	})
}
