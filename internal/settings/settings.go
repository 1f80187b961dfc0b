// Package settings stores per-business preferences and derives the money
// policy handed to the sales engine.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/retailpad/retailpad/internal/money"
	"github.com/retailpad/retailpad/internal/shared"
)

// ErrNotFound is returned by repositories when an owner has no settings row.
var ErrNotFound = fmt.Errorf("settings: %w", shared.ErrNotFound)

// Settings are the business preferences of one owner.
type Settings struct {
	OwnerID             uuid.UUID `json:"-" db:"owner_id"`
	BusinessName        string    `json:"business_name" db:"business_name"`
	CurrencyCode        string    `json:"currency_code" db:"currency_code"`
	Locale              string    `json:"locale" db:"locale"`
	DefaultReorderPoint int       `json:"default_reorder_point" db:"default_reorder_point"`
	ReminderOptIn       bool      `json:"reminder_opt_in" db:"reminder_opt_in"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults returns the settings used before an owner saves their own.
func Defaults(owner uuid.UUID) Settings {
	return Settings{
		OwnerID:             owner,
		CurrencyCode:        "USD",
		Locale:              "en-US",
		DefaultReorderPoint: 5,
	}
}

// Input is accepted by Upsert.
type Input struct {
	BusinessName        string `json:"business_name" validate:"max=200"`
	CurrencyCode        string `json:"currency_code" validate:"required,len=3"`
	Locale              string `json:"locale" validate:"omitempty,max=35"`
	DefaultReorderPoint int    `json:"default_reorder_point" validate:"gte=0"`
	ReminderOptIn       bool   `json:"reminder_opt_in"`
}

// RepositoryPort abstracts settings persistence.
type RepositoryPort interface {
	Get(ctx context.Context, owner uuid.UUID) (Settings, error)
	Upsert(ctx context.Context, s Settings) error
}

// Service reads and writes settings.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	group    singleflight.Group
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: shared.NewValidator(), now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the owner's settings, or the defaults when none are stored.
// Concurrent calls for the same owner share one store read, which is not
// cancelled when the caller that started it gives up.
func (s *Service) Get(ctx context.Context, owner uuid.UUID) (Settings, error) {
	readCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(owner.String(), func() (interface{}, error) {
		st, err := s.repo.Get(readCtx, owner)
		if errors.Is(err, ErrNotFound) {
			return Defaults(owner), nil
		}
		return st, err
	})
	select {
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Settings{}, res.Err
		}
		return res.Val.(Settings), nil
	}
}

// Upsert validates and stores the owner's settings.
func (s *Service) Upsert(ctx context.Context, owner uuid.UUID, input Input) (Settings, error) {
	input.BusinessName = strings.TrimSpace(input.BusinessName)
	input.CurrencyCode = strings.ToUpper(strings.TrimSpace(input.CurrencyCode))
	input.Locale = strings.TrimSpace(input.Locale)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Settings{}, err
	}
	if input.Locale == "" {
		input.Locale = "en-US"
	}
	if _, err := money.NewPolicy(input.CurrencyCode, input.Locale); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	st := Settings{
		OwnerID:             owner,
		BusinessName:        input.BusinessName,
		CurrencyCode:        input.CurrencyCode,
		Locale:              input.Locale,
		DefaultReorderPoint: input.DefaultReorderPoint,
		ReminderOptIn:       input.ReminderOptIn,
		UpdatedAt:           s.now(),
	}
	if err := s.repo.Upsert(ctx, st); err != nil {
		return Settings{}, err
	}
	s.group.Forget(owner.String())
	return st, nil
}

// Policy returns the money policy for the owner's currency and locale.
func (s *Service) Policy(ctx context.Context, owner uuid.UUID) (money.Policy, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return money.Policy{}, err
	}
	p, err := money.NewPolicy(st.CurrencyCode, st.Locale)
	if err != nil {
		return money.DefaultPolicy, nil
	}
	return p, nil
}

// DefaultReorderPoint returns the owner's fallback low-stock threshold.
func (s *Service) DefaultReorderPoint(ctx context.Context, owner uuid.UUID) (int, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	return st.DefaultReorderPoint, nil
}
