package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"librarydesk/models"
)

func (s *MySQLStore) CreateMember(ctx context.Context, username, email, hashedPassword, role string) (*models.Member, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE username = ?", username).Scan(&count)
	if err != nil {
		return nil, errors.Wrap(err, "check username")
	}
	if count > 0 {
		return nil, ErrMemberExists
	}

	m := &models.Member{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO members (id, username, email, password, role, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.Username, m.Email, m.Password, m.Role, m.Active, m.CreatedAt,
	)
	if err != nil {
		// Two registrations can pass the count check together; the unique
		// index on username decides the loser.
		if isDuplicateKey(err) {
			return nil, ErrMemberExists
		}
		return nil, errors.Wrap(err, "insert member")
	}
	return m, nil
}

func (s *MySQLStore) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	err := s.db.GetContext(ctx, &m,
		"SELECT id, username, email, password, role, active, created_at FROM members WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get member")
	}
	return &m, nil
}

func (s *MySQLStore) GetMemberByUsername(ctx context.Context, username string) (*models.Member, error) {
	var m models.Member
	err := s.db.GetContext(ctx, &m,
		"SELECT id, username, email, password, role, active, created_at FROM members WHERE username = ?", username)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get member by username")
	}
	return &m, nil
}

func (s *MySQLStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.db.SelectContext(ctx, &members,
		"SELECT id, username, email, password, role, active, created_at FROM members ORDER BY created_at")
	if err != nil {
		return nil, errors.Wrap(err, "list members")
	}
	return members, nil
}

// UpdateMember persists role and active flag changes.
func (s *MySQLStore) UpdateMember(ctx context.Context, m *models.Member) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET email = ?, role = ?, active = ? WHERE id = ?",
		m.Email, m.Role, m.Active, m.ID)
	if err != nil {
		return errors.Wrap(err, "update member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean a no-op update, so re-check existence.
		if _, err := s.GetMemberByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}
