package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cgirard/profeval/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS qcm_banks (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		bank_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS platform_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveBank stores a generated QCM bank and returns its id.
func (s *Store) SaveBank(bank model.QCMBank) (string, error) {
	data, err := json.Marshal(bank)
	if err != nil {
		return "", fmt.Errorf("marshal bank: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO qcm_banks (id, subject, bank_json, created_at) VALUES (?, ?, ?, ?)`,
		id, bank.Metadata.Subject, string(data), time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetBank returns a stored bank by id, or nil if not found.
func (s *Store) GetBank(id string) (*model.StoredBank, error) {
	var sb model.StoredBank
	var bankJSON string
	err := s.db.QueryRow(
		`SELECT id, subject, bank_json, created_at FROM qcm_banks WHERE id = ?`, id,
	).Scan(&sb.ID, &sb.Subject, &bankJSON, &sb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bankJSON), &sb.Bank); err != nil {
		return nil, fmt.Errorf("unmarshal bank %s: %w", id, err)
	}
	return &sb, nil
}

// ListBanks returns all stored banks, newest first.
func (s *Store) ListBanks() ([]model.StoredBank, error) {
	rows, err := s.db.Query(
		`SELECT id, subject, bank_json, created_at FROM qcm_banks ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var banks []model.StoredBank
	for rows.Next() {
		var sb model.StoredBank
		var bankJSON string
		if err := rows.Scan(&sb.ID, &sb.Subject, &bankJSON, &sb.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bankJSON), &sb.Bank); err != nil {
			return nil, fmt.Errorf("unmarshal bank %s: %w", sb.ID, err)
		}
		banks = append(banks, sb)
	}
	return banks, rows.Err()
}

// DeleteBank removes a stored bank.
func (s *Store) DeleteBank(id string) error {
	_, err := s.db.Exec(`DELETE FROM qcm_banks WHERE id = ?`, id)
	return err
}

// BankCount returns the number of stored banks.
func (s *Store) BankCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM qcm_banks`).Scan(&count)
	return count, err
}
