package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// GetProfile returns the companion-facing profile slice.
func (s *Store) GetProfile(ctx context.Context, userID string) (*store.Profile, error) {
	query := `
		SELECT user_id, pain_is_consistent, default_pain_locations, current_medications
		FROM profiles
		WHERE user_id = $1
	`

	profile := &store.Profile{}
	var meds []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.PainIsConsistent,
		pq.Array(&profile.DefaultPainLocations), &meds,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if len(meds) > 0 {
		if err := json.Unmarshal(meds, &profile.CurrentMedications); err != nil {
			return nil, fmt.Errorf("failed to decode medications: %w", err)
		}
	}

	return profile, nil
}

// UpsertProfile writes the whole profile snapshot.
func (s *Store) UpsertProfile(ctx context.Context, profile *store.Profile) error {
	meds, err := json.Marshal(profile.CurrentMedications)
	if err != nil {
		return fmt.Errorf("failed to encode medications: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, pain_is_consistent, default_pain_locations, current_medications)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET pain_is_consistent = $2, default_pain_locations = $3,
		              current_medications = $4, updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		profile.UserID, profile.PainIsConsistent,
		pq.Array(profile.DefaultPainLocations), meds,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// AppendMedication adds one medication to the profile, ignoring names
// already present.
func (s *Store) AppendMedication(ctx context.Context, userID string, med store.ProfileMedication) error {
	profile, err := s.GetProfile(ctx, userID)
	if err == store.ErrNotFound {
		profile = &store.Profile{UserID: userID}
	} else if err != nil {
		return err
	}

	for _, existing := range profile.CurrentMedications {
		if existing.Name == med.Name {
			return nil
		}
	}
	profile.CurrentMedications = append(profile.CurrentMedications, med)

	return s.UpsertProfile(ctx, profile)
}
