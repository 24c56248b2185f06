package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProjects(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p := Project{ID: "p1", UserID: "u1", Name: "Home array", Latitude: 39.7, Longitude: -104.9}
	if err := m.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := m.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got == nil || got.Name != "Home array" {
		t.Fatalf("unexpected project: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on create")
	}

	got.Name = "Renamed"
	if err := m.UpdateProject(ctx, *got); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	got, _ = m.GetProject(ctx, "p1")
	if got.Name != "Renamed" {
		t.Errorf("update not applied: %q", got.Name)
	}

	if err := m.UpdateProject(ctx, Project{ID: "missing"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}

	list, err := m.ListProjects(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProjects: %v, %d entries", err, len(list))
	}
	if list, _ := m.ListProjects(ctx, "other"); len(list) != 0 {
		t.Error("projects must be scoped by user")
	}

	if err := m.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if got, _ := m.GetProject(ctx, "p1"); got != nil {
		t.Error("deleted project still present")
	}
}

func TestMemoryProjectOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"c", "a", "b"} {
		p := Project{ID: id, UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
	}

	list, err := m.ListAllProjects(ctx)
	if err != nil {
		t.Fatalf("ListAllProjects: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, p := range list {
		if p.ID != want[i] {
			t.Fatalf("expected creation order %v, got position %d = %s", want, i, p.ID)
		}
	}
}

func TestMemorySnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if err := m.PutSnapshot(ctx, "k", []byte(`{"v":1}`), expires); err != nil {
		t.Fatalf("PutSnapshot: %v", err)
	}

	payload, got, err := m.GetSnapshot(ctx, "k")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if string(payload) != `{"v":1}` || !got.Equal(expires) {
		t.Errorf("unexpected snapshot: %s expires %v", payload, got)
	}

	if _, _, err := m.GetSnapshot(ctx, "missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}

	if err := m.DeleteSnapshot(ctx, "k"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, _, err := m.GetSnapshot(ctx, "k"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Error("deleted snapshot still present")
	}
}

func TestMemoryUsersAndTokens(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := User{ID: "u1", Username: "alex", Email: "alex@example.com", Role: "editor"}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, _ := m.GetUserByUsername(ctx, "alex"); got == nil || got.ID != "u1" {
		t.Fatalf("GetUserByUsername: %+v", got)
	}
	if got, _ := m.GetUserByEmail(ctx, "alex@example.com"); got == nil {
		t.Fatal("GetUserByEmail returned nil")
	}

	tok := Token{ID: "t1", UserID: "u1", TokenHash: "abc", Role: "editor"}
	if err := m.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if got, _ := m.GetTokenByHash(ctx, "abc"); got == nil || got.ID != "t1" {
		t.Fatalf("GetTokenByHash: %+v", got)
	}

	if err := m.UpdateTokenLastUsed(ctx, "t1"); err != nil {
		t.Fatalf("UpdateTokenLastUsed: %v", err)
	}
	if got, _ := m.GetToken(ctx, "t1"); got.LastUsedAt == nil {
		t.Error("LastUsedAt not stamped")
	}

	if list, _ := m.ListTokens(ctx, "u1"); len(list) != 1 {
		t.Errorf("ListTokens: expected 1, got %d", len(list))
	}
	if err := m.DeleteToken(ctx, "t1"); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if got, _ := m.GetToken(ctx, "t1"); got != nil {
		t.Error("deleted token still present")
	}
}

func TestMemorySettingsAndEmailConfig(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.SetSetting(ctx, "refresh_schedule", "@daily"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if v, _ := m.GetSetting(ctx, "refresh_schedule"); v != "@daily" {
		t.Errorf("GetSetting: %q", v)
	}
	if v, _ := m.GetSetting(ctx, "missing"); v != "" {
		t.Errorf("missing setting should be empty, got %q", v)
	}

	if cfg, _ := m.GetEmailConfig(ctx); cfg != nil {
		t.Fatal("expected nil email config initially")
	}
	if err := m.SaveEmailConfig(ctx, EmailConfig{Provider: "smtp", FromAddress: "noreply@example.com", Enabled: true}); err != nil {
		t.Fatalf("SaveEmailConfig: %v", err)
	}
	cfg, _ := m.GetEmailConfig(ctx)
	if cfg == nil || cfg.Provider != "smtp" {
		t.Fatalf("unexpected email config: %+v", cfg)
	}
}
