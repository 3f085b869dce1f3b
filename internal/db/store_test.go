package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/themobileprof/paintrack-be/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	s := NewStore(&DB{mockDB})
	return s, mock, func() { mockDB.Close() }
}

func TestStore_SaveLog(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO pain_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	var events []store.ChangeEvent
	s.Changes().Subscribe(func(ev store.ChangeEvent) { events = append(events, ev) })

	level := 6
	entry := &store.PainLogEntry{
		UserID:    "11111111-1111-1111-1111-111111111111",
		LoggedAt:  now,
		PainLevel: &level,
		Locations: []string{"temples"},
		Medications: []store.MedicationDose{
			{Name: "ibuprofen"},
		},
	}
	if err := s.SaveLog(context.Background(), entry); err != nil {
		t.Fatalf("SaveLog: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected an assigned ID")
	}
	if len(events) != 1 || events[0].Kind != store.ChangeInsert || events[0].EntryID != entry.ID {
		t.Errorf("expected one insert event, got %+v", events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_FetchRange(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	logged := start.Add(9 * time.Hour)

	columns := []string{
		"id", "user_id", "logged_at", "pain_level", "locations", "triggers",
		"medications", "symptoms", "notes", "functional_impact", "impact_tags",
		"side_effects", "created_at", "updated_at",
	}
	rows := sqlmock.NewRows(columns).AddRow(
		"e1", "u1", logged, 7, "{temples,forehead}", "{stress}",
		[]byte(`[{"name":"ibuprofen","effective":false}]`), "{nausea}",
		"", "limited", "{work}", nil, logged, logged,
	)
	mock.ExpectQuery(`FROM pain_logs`).
		WithArgs("u1", start, end).
		WillReturnRows(rows)

	entries, err := s.FetchRange(context.Background(), "u1", start, end)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.PainLevel == nil || *e.PainLevel != 7 {
		t.Errorf("expected pain level 7, got %v", e.PainLevel)
	}
	if len(e.Locations) != 2 || e.Locations[0] != "temples" {
		t.Errorf("expected locations, got %v", e.Locations)
	}
	if len(e.Medications) != 1 || e.Medications[0].Name != "ibuprofen" ||
		e.Medications[0].Effective == nil || *e.Medications[0].Effective {
		t.Errorf("expected an ineffective ibuprofen dose, got %+v", e.Medications)
	}
	if e.FunctionalImpact != store.ImpactLimited {
		t.Errorf("expected limited impact, got %q", e.FunctionalImpact)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_UpdateLogNotFound(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec(`UPDATE pain_logs`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	level := 4
	err := s.UpdateLog(context.Background(), "u1", "missing", store.LogPatch{PainLevel: &level})
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteLog(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec(`DELETE FROM pain_logs`).
		WithArgs("e1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	var events []store.ChangeEvent
	s.Changes().Subscribe(func(ev store.ChangeEvent) { events = append(events, ev) })

	if err := s.DeleteLog(context.Background(), "u1", "e1"); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if len(events) != 1 || events[0].Kind != store.ChangeDelete {
		t.Errorf("expected a delete event, got %+v", events)
	}
}

func TestStore_OpenSessionGuard(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	open := sqlmock.NewRows([]string{"id", "user_id", "start_level", "end_level", "started_at", "resolved_at"}).
		AddRow("s1", "u1", 8, nil, time.Now(), nil)
	mock.ExpectQuery(`FROM pain_sessions`).WithArgs("u1").WillReturnRows(open)

	_, err := s.OpenSession(context.Background(), "u1", 9)
	if err != store.ErrSessionOpen {
		t.Fatalf("expected ErrSessionOpen, got %v", err)
	}
}

func TestStore_ResolveSessionNoneOpen(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(`UPDATE pain_sessions`).
		WithArgs(2, "u1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.ResolveSession(context.Background(), "u1", 2)
	if err != store.ErrNoOpenSession {
		t.Fatalf("expected ErrNoOpenSession, got %v", err)
	}
}

func TestStore_GetProfile(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	rows := sqlmock.NewRows([]string{"user_id", "pain_is_consistent", "default_pain_locations", "current_medications"}).
		AddRow("u1", true, "{neck}", []byte(`[{"name":"tylenol","dosage":"500mg"}]`))
	mock.ExpectQuery(`FROM profiles`).WithArgs("u1").WillReturnRows(rows)

	profile, err := s.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !profile.PainIsConsistent {
		t.Error("expected a consistent-pain profile")
	}
	if len(profile.DefaultPainLocations) != 1 || profile.DefaultPainLocations[0] != "neck" {
		t.Errorf("expected neck default, got %v", profile.DefaultPainLocations)
	}
	if len(profile.CurrentMedications) != 1 || profile.CurrentMedications[0].Dosage != "500mg" {
		t.Errorf("expected medication with dosage, got %+v", profile.CurrentMedications)
	}
}

func TestStore_GetProfileNotFound(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(`FROM profiles`).WithArgs("u1").WillReturnError(sql.ErrNoRows)

	_, err := s.GetProfile(context.Background(), "u1")
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
