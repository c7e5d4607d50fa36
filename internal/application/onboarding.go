package application

import (
	"context"
	"fmt"
	"log/slog"

	"voice-companion/internal/domain"
)

// FlagStore persists named booleans across launches.
type FlagStore interface {
	Flag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string, value bool) error
}

// Onboarding guards the first-run carousel.
type Onboarding struct {
	store  FlagStore
	logger *slog.Logger
}

func NewOnboarding(store FlagStore, logger *slog.Logger) *Onboarding {
	return &Onboarding{store: store, logger: logger}
}

// Completed reports whether the carousel was finished before. A read error
// counts as not completed.
func (o *Onboarding) Completed(ctx context.Context) bool {
	done, err := o.store.Flag(ctx, domain.FlagOnboarding)
	if err != nil {
		o.logger.Warn("reading onboarding flag", "error", err)
		return false
	}
	return done
}

func (o *Onboarding) Finish(ctx context.Context) error {
	if err := o.store.SetFlag(ctx, domain.FlagOnboarding, true); err != nil {
		return fmt.Errorf("saving onboarding flag: %w", err)
	}
	o.logger.Info("onboarding finished")
	return nil
}

func (o *Onboarding) Reset(ctx context.Context) error {
	if err := o.store.SetFlag(ctx, domain.FlagOnboarding, false); err != nil {
		return fmt.Errorf("clearing onboarding flag: %w", err)
	}
	return nil
}

func (o *Onboarding) Pages() []domain.OnboardingPage {
	return domain.OnboardingPages()
}
