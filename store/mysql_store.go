package store

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect import
	_ "github.com/go-sql-driver/mysql"               // driver import
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"librarydesk/models"
)

var dialect = goqu.Dialect("mysql")

type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore connects and pings. The DSN must carry parseTime=true so
// DATETIME columns scan into time.Time.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) InitSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS members (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(150) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'member',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			author VARCHAR(255) NOT NULL,
			isbn VARCHAR(13) NOT NULL UNIQUE,
			published_date DATE NOT NULL,
			copies_available INT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			INDEX idx_books_title (title),
			INDEX idx_books_author (author)
		)`,
		`CREATE TABLE IF NOT EXISTS loans (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			member_id VARCHAR(36) NOT NULL,
			book_id BIGINT NOT NULL,
			checkout_date DATETIME NOT NULL,
			due_date DATETIME NOT NULL,
			return_date DATETIME,
			open_marker CHAR(1) GENERATED ALWAYS AS (IF(return_date IS NULL, 'Y', NULL)) STORED,
			UNIQUE KEY uniq_open_loan (member_id, book_id, open_marker),
			FOREIGN KEY (member_id) REFERENCES members(id),
			FOREIGN KEY (book_id) REFERENCES books(id)
		)`,
		`CREATE TABLE IF NOT EXISTS waitlist (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			member_id VARCHAR(36) NOT NULL,
			book_id BIGINT NOT NULL,
			joined_at DATETIME NOT NULL,
			UNIQUE KEY uniq_waitlist_pair (member_id, book_id),
			FOREIGN KEY (member_id) REFERENCES members(id),
			FOREIGN KEY (book_id) REFERENCES books(id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			member_id VARCHAR(36) NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (member_id) REFERENCES members(id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INT PRIMARY KEY,
			max_open_loans INT NOT NULL DEFAULT 5,
			loan_period_days INT NOT NULL DEFAULT 14
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return errors.Wrapf(err, "init schema: %s", query)
		}
	}

	// Seed the settings row once.
	var settingsCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&settingsCount); err != nil {
		return errors.Wrap(err, "read settings")
	}
	if settingsCount == 0 {
		if _, err := s.db.Exec("INSERT INTO settings (id, max_open_loans, loan_period_days) VALUES (1, 5, 14)"); err != nil {
			return errors.Wrap(err, "seed settings")
		}
	}

	return nil
}

func (s *MySQLStore) GetSettings() (*models.Settings, error) {
	var set models.Settings
	err := s.db.Get(&set, "SELECT id, max_open_loans, loan_period_days FROM settings WHERE id = 1")
	if err != nil {
		// Missing row falls back to the defaults the schema seeds.
		return &models.Settings{ID: 1, MaxOpenLoans: 5, LoanPeriodDays: 14}, nil
	}
	return &set, nil
}
