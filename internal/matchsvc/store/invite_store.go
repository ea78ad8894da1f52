package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mesker/trick-services/internal/matchsvc/game"
)

// InviteEntry maps one invite code to its match and team.
type InviteEntry struct {
	MatchID string      `json:"matchId"`
	TeamID  game.TeamID `json:"teamId"`
}

type inviteDocument struct {
	InviteCodes map[string]InviteEntry `json:"inviteCodes"`
	Timestamp   time.Time              `json:"timestamp"`
}

// InviteStore persists the invite-code map as one flat JSON document,
// rewritten wholesale on every change. It is not authoritative for match
// contents: after a restart the live matches are gone and any code loaded
// from disk that points at a missing match is invalid.
type InviteStore struct {
	path string
}

func NewInviteStore(path string) *InviteStore {
	return &InviteStore{path: path}
}

// Load reads the persisted map. A missing file is an empty map, not an error.
func (s *InviteStore) Load() (map[string]InviteEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]InviteEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read invite codes: %w", err)
	}

	var doc inviteDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse invite codes: %w", err)
	}
	if doc.InviteCodes == nil {
		doc.InviteCodes = map[string]InviteEntry{}
	}
	return doc.InviteCodes, nil
}

// Save rewrites the whole document.
func (s *InviteStore) Save(codes map[string]InviteEntry) error {
	doc := inviteDocument{
		InviteCodes: codes,
		Timestamp:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal invite codes: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write invite codes: %w", err)
	}
	return nil
}
