package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/EmpoweredVote/jobmarket/internal/db"
)

// GormStore keeps sessions in Postgres with the upstream token sealed.
type GormStore struct {
	db     *gorm.DB
	sealer *Sealer
}

func NewGormStore(d *gorm.DB, sealer *Sealer) *GormStore {
	return &GormStore{db: d, sealer: sealer}
}

// Migrate creates the gateway schema and the sessions table.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "gateway"); err != nil {
		return fmt.Errorf("ensure schema gateway: %w", err)
	}
	if err := d.AutoMigrate(&Session{}); err != nil {
		return fmt.Errorf("auto-migrate sessions: %w", err)
	}
	return nil
}

func (g *GormStore) Create(ctx context.Context, s Session) error {
	sealed, err := g.sealer.Seal(s.Token)
	if err != nil {
		return err
	}
	s.Token = sealed
	return g.db.WithContext(ctx).Create(&s).Error
}

func (g *GormStore) Find(ctx context.Context, id string) (Session, error) {
	var s Session
	err := g.db.WithContext(ctx).First(&s, "session_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	token, err := g.sealer.Open(s.Token)
	if err != nil {
		return Session{}, err
	}
	s.Token = token
	return s, nil
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&Session{}, "session_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Delete(&Session{}, "expires_at <= ?", now)
	return res.RowsAffected, res.Error
}
