package storage

import (
	"context"
	"errors"
	"time"
)

// Storage abstracts persistence for saved projects, cache snapshots,
// users and operational state. The snapshot methods satisfy the cache
// package's SnapshotStore interface, so any Storage doubles as the
// long cache tier.
type Storage interface {
	// Projects (saved analyses)
	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	ListAllProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, p Project) error
	DeleteProject(ctx context.Context, id string) error

	// Cache snapshots (long tier)
	GetSnapshot(ctx context.Context, key string) ([]byte, time.Time, error)
	PutSnapshot(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	DeleteSnapshot(ctx context.Context, key string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, id string) (*Token, error)
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Worker coordination
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error
	Close() error
}

var (
	// ErrSnapshotNotFound marks a snapshot cache miss.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrProjectNotFound marks a lookup of a project that does not exist.
	ErrProjectNotFound = errors.New("project not found")
)
