package members

import (
	"database/sql"
	"time"
)

type Member struct {
	ID                 int        `json:"id"`
	UserID             int        `json:"user_id"`
	Name               string     `json:"name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Gender             string     `json:"gender"`
	Relationship       string     `json:"relationship"`
	ExistingConditions string     `json:"existing_conditions"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Age returns full years at the given instant, or -1 when the birth date is unknown.
func (m *Member) Age(now time.Time) int {
	if m.DateOfBirth == nil {
		return -1
	}
	years := now.Year() - m.DateOfBirth.Year()
	anniversary := m.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Create(m *Member) error {
	res, err := r.db.Exec(`INSERT INTO family_members (user_id, name, date_of_birth, gender, relationship, existing_conditions) VALUES (?,?,?,?,?,?)`,
		m.UserID, m.Name, m.DateOfBirth, m.Gender, m.Relationship, m.ExistingConditions)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = int(id)
	return nil
}

func (r *Repository) ByID(id int) (*Member, error) {
	row := r.db.QueryRow(`SELECT id, user_id, name, date_of_birth, gender, relationship, COALESCE(existing_conditions,''), created_at, updated_at FROM family_members WHERE id = ?`, id)
	var m Member
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.DateOfBirth, &m.Gender, &m.Relationship, &m.ExistingConditions, &m.CreatedAt, &m.UpdatedAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListByUser(userID int) ([]Member, error) {
	rows, err := r.db.Query(`SELECT id, user_id, name, date_of_birth, gender, relationship, COALESCE(existing_conditions,''), created_at, updated_at FROM family_members WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.DateOfBirth, &m.Gender, &m.Relationship, &m.ExistingConditions, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *Repository) CountByUser(userID int) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM family_members WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *Repository) Update(m *Member) error {
	_, err := r.db.Exec(`UPDATE family_members SET name = ?, date_of_birth = ?, gender = ?, relationship = ?, existing_conditions = ? WHERE id = ? AND user_id = ?`,
		m.Name, m.DateOfBirth, m.Gender, m.Relationship, m.ExistingConditions, m.ID, m.UserID)
	return err
}

func (r *Repository) Delete(id, userID int) error {
	_, err := r.db.Exec(`DELETE FROM family_members WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
