package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mesker/trick-services/internal/matchsvc/game"
)

func TestInviteStoreMissingFile(t *testing.T) {
	s := NewInviteStore(filepath.Join(t.TempDir(), "invite-codes.json"))
	codes, err := s.Load()
	if err != nil {
		t.Fatalf("missing file should load as empty map, got %v", err)
	}
	if len(codes) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(codes))
	}
}

func TestInviteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invite-codes.json")
	s := NewInviteStore(path)

	in := map[string]InviteEntry{
		"ABC123": {MatchID: "m1", TeamID: game.Team1},
		"XYZ789": {MatchID: "m1", TeamID: game.Team2},
	}
	if err := s.Save(in); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("loaded %d entries, want %d", len(out), len(in))
	}
	for code, entry := range in {
		if out[code] != entry {
			t.Errorf("entry %s = %+v, want %+v", code, out[code], entry)
		}
	}
}

func TestInviteStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invite-codes.json")
	s := NewInviteStore(path)

	if err := s.Save(map[string]InviteEntry{"OLD111": {MatchID: "m1", TeamID: game.Team1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(map[string]InviteEntry{"NEW222": {MatchID: "m2", TeamID: game.Team2}}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["OLD111"]; ok {
		t.Error("stale code survived a wholesale rewrite")
	}
	if out["NEW222"].MatchID != "m2" {
		t.Errorf("new code missing after rewrite: %+v", out)
	}
}

func TestInviteStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invite-codes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewInviteStore(path).Load(); err == nil {
		t.Fatal("expected parse error for corrupt document")
	}
}
