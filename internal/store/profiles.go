package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserContext is the merged snapshot the system prompt and the
// profile-context tool are built from. Missing profile or insights records
// leave the corresponding field nil.
type UserContext struct {
	User     *User
	Profile  *Profile
	Insights *ProfileInsights
}

// GetUser fetches an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// InsertUser stores a new account and fills in its generated id.
func (s *Store) InsertUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate user id: %w", err)
		}
		u.ID = id.String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
		u.ID, u.Email, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetProfile fetches the user's profile, or ErrNotFound when none exists.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	var sex, dob, trainingAge, goals sql.NullString
	var heightCm, weightKg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, sex, date_of_birth, height_cm, weight_kg, training_age, goals
		FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &sex, &dob, &heightCm, &weightKg, &trainingAge, &goals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Sex = sex.String
	p.DateOfBirth = dob.String
	p.TrainingAge = trainingAge.String
	p.Goals = goals.String
	if heightCm.Valid {
		p.HeightCm = &heightCm.Float64
	}
	if weightKg.Valid {
		p.WeightKg = &weightKg.Float64
	}
	return &p, nil
}

// UpsertProfile stores or replaces the user's profile.
func (s *Store) UpsertProfile(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, sex, date_of_birth, height_cm, weight_kg, training_age, goals, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sex = excluded.sex,
			date_of_birth = excluded.date_of_birth,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			training_age = excluded.training_age,
			goals = excluded.goals,
			updated_at = excluded.updated_at`,
		p.UserID, p.Sex, p.DateOfBirth, p.HeightCm, p.WeightKg, p.TrainingAge,
		p.Goals, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetInsights fetches the user's insights record, or ErrNotFound.
func (s *Store) GetInsights(ctx context.Context, userID string) (*ProfileInsights, error) {
	var ins ProfileInsights
	var injury, issues, strengths, weakPoints string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, injury_tags, current_issues, strength_tags, weak_point_tags, psych_profile
		FROM profile_insights WHERE user_id = ?`, userID).
		Scan(&ins.UserID, &injury, &issues, &strengths, &weakPoints, &ins.PsychProfile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get insights: %w", err)
	}
	if err := unmarshalJSON(injury, &ins.InjuryTags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(issues, &ins.CurrentIssues); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(strengths, &ins.StrengthTags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(weakPoints, &ins.WeakPointTags); err != nil {
		return nil, err
	}
	return &ins, nil
}

// InsightsUpdate carries a field-wise insights merge; nil fields are left
// untouched in the stored record.
type InsightsUpdate struct {
	InjuryTags    []string
	CurrentIssues []string
	StrengthTags  []string
	WeakPointTags []string
	PsychProfile  *string
}

// MergeInsights applies the update to the user's insights, creating the
// record when absent, and returns the resulting state.
func (s *Store) MergeInsights(ctx context.Context, userID string, upd InsightsUpdate) (*ProfileInsights, error) {
	current, err := s.GetInsights(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		current = &ProfileInsights{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	if upd.InjuryTags != nil {
		current.InjuryTags = upd.InjuryTags
	}
	if upd.CurrentIssues != nil {
		current.CurrentIssues = upd.CurrentIssues
	}
	if upd.StrengthTags != nil {
		current.StrengthTags = upd.StrengthTags
	}
	if upd.WeakPointTags != nil {
		current.WeakPointTags = upd.WeakPointTags
	}
	if upd.PsychProfile != nil {
		current.PsychProfile = *upd.PsychProfile
	}

	injury, err := marshalJSON(current.InjuryTags)
	if err != nil {
		return nil, err
	}
	issues, err := marshalJSON(current.CurrentIssues)
	if err != nil {
		return nil, err
	}
	strengths, err := marshalJSON(current.StrengthTags)
	if err != nil {
		return nil, err
	}
	weakPoints, err := marshalJSON(current.WeakPointTags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile_insights (user_id, injury_tags, current_issues, strength_tags, weak_point_tags, psych_profile, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			injury_tags = excluded.injury_tags,
			current_issues = excluded.current_issues,
			strength_tags = excluded.strength_tags,
			weak_point_tags = excluded.weak_point_tags,
			psych_profile = excluded.psych_profile,
			updated_at = excluded.updated_at`,
		userID, injury, issues, strengths, weakPoints, current.PsychProfile,
		time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("merge insights: %w", err)
	}
	return current, nil
}

// GetUserContext assembles the merged user/profile/insights snapshot.
// Missing profile or insights records are tolerated; a missing user is not.
func (s *Store) GetUserContext(ctx context.Context, userID string) (*UserContext, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	uc := &UserContext{User: user}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	uc.Profile = profile

	insights, err := s.GetInsights(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	uc.Insights = insights

	return uc, nil
}
