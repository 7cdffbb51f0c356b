package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sunrise/internal/adapters/storage"
	domain "sunrise/internal/domain/admission"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

const columns = `id, first_name, last_name, email, phone, date_of_birth, gender, address, city, state, pincode,
	current_class, school_name, board, previous_percentage, target_percentage, selected_program,
	preferred_subjects, submitted_at`

// SQLiteStore implements Store using the admission_application table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db has the schema from storage.InitDB
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts or replaces an application.
// PRE: a.ID is non-empty and a passed Validate
// POST: the application is persisted with its subjects as a JSON array
func (s *SQLiteStore) Save(ctx context.Context, clientID string, a domain.Application) error {
	subjects, err := json.Marshal(a.PreferredSubjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admission_application (client_id, `+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email=excluded.email, phone=excluded.phone,
		 selected_program=excluded.selected_program, preferred_subjects=excluded.preferred_subjects,
		 submitted_at=excluded.submitted_at`,
		clientID, a.ID, a.FirstName, a.LastName, a.Email, a.Phone, a.DateOfBirth, a.Gender, a.Address, a.City,
		a.State, a.Pincode, a.CurrentClass, a.SchoolName, a.Board, a.PreviousPercentage, a.TargetPercentage,
		a.SelectedProgram, string(subjects), a.SubmittedAt.UTC().Format(timeLayout),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (domain.Application, error) {
	var a domain.Application
	var subjects, submitted string
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.DateOfBirth, &a.Gender, &a.Address,
		&a.City, &a.State, &a.Pincode, &a.CurrentClass, &a.SchoolName, &a.Board, &a.PreviousPercentage,
		&a.TargetPercentage, &a.SelectedProgram, &subjects, &submitted)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(subjects), &a.PreferredSubjects); err != nil {
		return a, fmt.Errorf("decode subjects for %s: %w", a.ID, err)
	}
	a.SubmittedAt, _ = time.Parse(timeLayout, submitted)
	a.TermsAccepted = true
	return a, nil
}

// GetByID retrieves an application.
// POST: returns sql.ErrNoRows when absent
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM admission_application WHERE id = ?`, id))
}

// ListRecent returns the newest applications first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM admission_application ORDER BY submitted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
