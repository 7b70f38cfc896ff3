package session

import (
	"context"
	"encoding/json"
	"fmt"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
)

// LoadProfile reads the stored user profile. A missing or unreadable
// profile is replaced by a fresh guest profile, which is stored.
func LoadProfile(ctx context.Context, store output.StoragePort) (entity.UserProfile, error) {
	raw, ok, err := store.Get(ctx, entity.KeyProfile)
	if err != nil {
		return entity.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		var p entity.UserProfile
		if err := json.Unmarshal(raw, &p); err == nil && p.AuraID != "" {
			return p, nil
		}
	}

	p := entity.NewGuestProfile()
	if err := SaveProfile(ctx, store, p); err != nil {
		return p, err
	}
	return p, nil
}

func SaveProfile(ctx context.Context, store output.StoragePort, p entity.UserProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, entity.KeyProfile, raw); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
