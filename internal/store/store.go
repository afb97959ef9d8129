package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an estimate does not exist or is not visible to
// the requesting user.
var ErrNotFound = errors.New("estimate not found")

// Store persists estimates scoped to an owning user. The engine never calls
// this; callers pass engine input/output snapshots across the boundary as
// opaque JSON.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// User is an identity resolved from the access proxy.
type User struct {
	ID    int64
	Email string
}

// EstimateRecord is a stored input snapshot plus the totals snapshot computed
// from it at save time.
type EstimateRecord struct {
	ID         string
	UserID     int64
	Name       string
	Data       json.RawMessage
	Totals     json.RawMessage
	ShareToken string
	CreatedAt  int64
	UpdatedAt  int64
}

// ListItem is the lightweight listing row; the grand total is lifted out of
// the totals snapshot so the list never re-runs the engine.
type ListItem struct {
	ID         string
	Name       string
	GrandTotal float64
	CreatedAt  int64
	UpdatedAt  int64
}

// EnsureUser inserts the user on first sight and touches last_login otherwise.
func (s *Store) EnsureUser(email string) (User, error) {
	var u User
	err := s.db.QueryRow(`SELECT id, email FROM users WHERE email = ?`, email).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := s.db.Exec(`INSERT INTO users (email) VALUES (?)`, email)
		if err != nil {
			return User{}, fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return User{}, fmt.Errorf("read user id: %w", err)
		}
		return User{ID: id, Email: email}, nil
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE users SET last_login = unixepoch() WHERE id = ?`, u.ID); err != nil {
		return User{}, fmt.Errorf("touch last_login: %w", err)
	}
	return u, nil
}

// Create stores a new estimate and returns the full record.
func (s *Store) Create(userID int64, name string, data, totals json.RawMessage) (EstimateRecord, error) {
	id := "est_" + uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO estimates (id, user_id, name, data_json, totals_json)
		VALUES (?, ?, ?, ?, ?)
	`, id, userID, name, string(data), string(totals))
	if err != nil {
		return EstimateRecord{}, fmt.Errorf("insert estimate: %w", err)
	}
	return s.Get(userID, id)
}

// Get returns an estimate owned by userID, or ErrNotFound.
func (s *Store) Get(userID int64, id string) (EstimateRecord, error) {
	return s.get(`WHERE id = ? AND user_id = ?`, id, userID)
}

// GetShared returns an estimate by its read-share token, regardless of owner.
func (s *Store) GetShared(token string) (EstimateRecord, error) {
	if token == "" {
		return EstimateRecord{}, ErrNotFound
	}
	return s.get(`WHERE share_token = ?`, token)
}

func (s *Store) get(where string, args ...any) (EstimateRecord, error) {
	var rec EstimateRecord
	var data, totals string
	var shareToken sql.NullString
	err := s.db.QueryRow(`
		SELECT id, user_id, name, data_json, totals_json, share_token, created_at, updated_at
		FROM estimates `+where,
		args...,
	).Scan(&rec.ID, &rec.UserID, &rec.Name, &data, &totals, &shareToken, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return EstimateRecord{}, ErrNotFound
	}
	if err != nil {
		return EstimateRecord{}, fmt.Errorf("query estimate: %w", err)
	}
	rec.Data = json.RawMessage(data)
	rec.Totals = json.RawMessage(totals)
	rec.ShareToken = shareToken.String
	return rec, nil
}

// List returns the user's estimates newest-updated first, optionally filtered
// by a substring match on the name.
func (s *Store) List(userID int64, query string) ([]ListItem, error) {
	search := "%" + strings.TrimSpace(query) + "%"
	rows, err := s.db.Query(`
		SELECT id, name, totals_json, created_at, updated_at
		FROM estimates
		WHERE user_id = ? AND (? = '' OR name LIKE ?)
		ORDER BY updated_at DESC, id DESC
	`, userID, strings.TrimSpace(query), search)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.Name, &totalsJSON, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		item.GrandTotal = grandTotalFromJSON(totalsJSON)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return items, nil
}

// grandTotalFromJSON tolerantly lifts the grand total out of a stored totals
// snapshot; older snapshots may have used different key names.
func grandTotalFromJSON(totalsJSON string) float64 {
	var values map[string]json.RawMessage
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}
	for _, key := range []string{"grand_total", "total", "final_total"} {
		if raw, ok := values[key]; ok {
			var total float64
			if err := json.Unmarshal(raw, &total); err == nil {
				return total
			}
		}
	}
	return 0
}

// Update rewrites name and/or snapshot fields of an owned estimate. Nil data
// leaves the stored snapshots untouched; an empty name keeps the current name.
func (s *Store) Update(userID int64, id, name string, data, totals json.RawMessage) error {
	sets := []string{"updated_at = unixepoch()"}
	args := []any{}

	if name != "" {
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if data != nil {
		sets = append(sets, "data_json = ?", "totals_json = ?")
		args = append(args, string(data), string(totals))
	}
	args = append(args, id, userID)

	res, err := s.db.Exec(
		`UPDATE estimates SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update estimate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update estimate: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an owned estimate, or returns ErrNotFound.
func (s *Store) Delete(userID int64, id string) error {
	res, err := s.db.Exec(`DELETE FROM estimates WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Share returns the estimate's read-share token, minting one on first call.
func (s *Store) Share(userID int64, id string) (string, error) {
	rec, err := s.Get(userID, id)
	if err != nil {
		return "", err
	}
	if rec.ShareToken != "" {
		return rec.ShareToken, nil
	}

	token := uuid.NewString()
	if _, err := s.db.Exec(
		`UPDATE estimates SET share_token = ? WHERE id = ? AND user_id = ?`,
		token, id, userID,
	); err != nil {
		return "", fmt.Errorf("set share token: %w", err)
	}
	return token, nil
}

// Unshare revokes the estimate's read-share token.
func (s *Store) Unshare(userID int64, id string) error {
	res, err := s.db.Exec(
		`UPDATE estimates SET share_token = NULL WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("clear share token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear share token: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
