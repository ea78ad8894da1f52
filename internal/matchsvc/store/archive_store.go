package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mesker/trick-services/internal/matchsvc/game"
)

// MatchArchive is the summary row written when a match reaches a terminal
// state. Live match state never touches the database.
type MatchArchive struct {
	MatchID     string
	Status      game.Status
	TeamSize    int
	WinnerTeam  game.TeamID
	Team1Points int
	Team2Points int
	Rounds      int
	Duration    time.Duration
	CompletedAt time.Time
}

type ArchiveStore struct {
	db *pgxpool.Pool
}

func NewArchiveStore(db *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// Init creates the archive table when it does not exist yet.
func (s *ArchiveStore) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS match_archive (
			id           BIGSERIAL PRIMARY KEY,
			match_id     TEXT NOT NULL,
			status       TEXT NOT NULL,
			team_size    INT NOT NULL,
			winner_team  TEXT NOT NULL,
			team1_points INT NOT NULL,
			team2_points INT NOT NULL,
			rounds       INT NOT NULL,
			duration_ms  BIGINT NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to init match archive: %w", err)
	}
	return nil
}

// InsertMatch records one finished or cancelled match.
func (s *ArchiveStore) InsertMatch(ctx context.Context, rec *MatchArchive) error {
	query := `
		INSERT INTO match_archive
			(match_id, status, team_size, winner_team, team1_points, team2_points, rounds, duration_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query,
		rec.MatchID,
		string(rec.Status),
		rec.TeamSize,
		string(rec.WinnerTeam),
		rec.Team1Points,
		rec.Team2Points,
		rec.Rounds,
		rec.Duration.Milliseconds(),
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive match %s: %w", rec.MatchID, err)
	}
	return nil
}
