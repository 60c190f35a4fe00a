package records

import (
	"database/sql"
	"time"
)

type Report struct {
	ID          int       `json:"id"`
	MemberID    int       `json:"member_id"`
	FileName    string    `json:"file_name"`
	ReportDate  time.Time `json:"report_date"`
	MarkerCount int       `json:"marker_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Observation struct {
	ID         int       `json:"id"`
	ReportID   int       `json:"report_id"`
	MemberID   int       `json:"member_id"`
	Marker     string    `json:"marker"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
	RefMin     *float64  `json:"ref_min,omitempty"`
	RefMax     *float64  `json:"ref_max,omitempty"`
	RefUnit    string    `json:"ref_unit,omitempty"`
	Abnormal   bool      `json:"abnormal"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

// CreateReport stores the report and its observations in one transaction.
func (r *Repository) CreateReport(rep *Report, obs []Observation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`INSERT INTO lab_reports (member_id, file_name, report_date, marker_count) VALUES (?,?,?,?)`,
		rep.MemberID, rep.FileName, rep.ReportDate, len(obs))
	if err != nil {
		tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}
	rep.ID = int(id)
	rep.MarkerCount = len(obs)
	for i := range obs {
		obs[i].ReportID = rep.ID
		obs[i].MemberID = rep.MemberID
		obs[i].ObservedAt = rep.ReportDate
		if _, err := tx.Exec(`INSERT INTO lab_observations (report_id, member_id, marker, value, unit, observed_at, ref_min, ref_max, ref_unit, abnormal) VALUES (?,?,?,?,?,?,?,?,?,?)`,
			obs[i].ReportID, obs[i].MemberID, obs[i].Marker, obs[i].Value, obs[i].Unit, obs[i].ObservedAt, obs[i].RefMin, obs[i].RefMax, obs[i].RefUnit, obs[i].Abnormal); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) ReportsByMember(memberID int) ([]Report, error) {
	rows, err := r.db.Query(`SELECT id, member_id, file_name, report_date, marker_count, created_at FROM lab_reports WHERE member_id = ? ORDER BY report_date DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]Report, 0)
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.MemberID, &rep.FileName, &rep.ReportDate, &rep.MarkerCount, &rep.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// DeleteReport removes the report; observations go with it via FK cascade.
func (r *Repository) DeleteReport(id, memberID int) error {
	_, err := r.db.Exec(`DELETE FROM lab_reports WHERE id = ? AND member_id = ?`, id, memberID)
	return err
}

const obsColumns = `id, report_id, member_id, marker, value, unit, observed_at, ref_min, ref_max, COALESCE(ref_unit,''), abnormal`

func scanObservations(rows *sql.Rows) ([]Observation, error) {
	defer rows.Close()
	list := make([]Observation, 0)
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.ID, &o.ReportID, &o.MemberID, &o.Marker, &o.Value, &o.Unit, &o.ObservedAt, &o.RefMin, &o.RefMax, &o.RefUnit, &o.Abnormal); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// FindObservations returns observations in [from, to] ordered oldest first.
func (r *Repository) FindObservations(memberID int, from, to time.Time) ([]Observation, error) {
	rows, err := r.db.Query(`SELECT `+obsColumns+` FROM lab_observations WHERE member_id = ? AND observed_at >= ? AND observed_at <= ? ORDER BY observed_at ASC, id ASC`,
		memberID, from, to)
	if err != nil {
		return nil, err
	}
	return scanObservations(rows)
}

// LatestObservations returns the most recent limit rows, oldest first.
func (r *Repository) LatestObservations(memberID, limit int) ([]Observation, error) {
	rows, err := r.db.Query(`SELECT `+obsColumns+` FROM lab_observations WHERE member_id = ? ORDER BY observed_at DESC, id DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, err
	}
	list, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// CountAll reports how many observations exist for the member at all,
// so callers can tell "no data ever" apart from "no data in this window".
func (r *Repository) CountAll(memberID int) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM lab_observations WHERE member_id = ?`, memberID).Scan(&n)
	return n, err
}

type TrendPoint struct {
	ObservedAt time.Time `json:"observed_at"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Abnormal   bool      `json:"abnormal"`
}

// Trend returns the time series for one marker, oldest first.
func (r *Repository) Trend(memberID int, marker string, from, to time.Time) ([]TrendPoint, error) {
	rows, err := r.db.Query(`SELECT observed_at, value, unit, abnormal FROM lab_observations WHERE member_id = ? AND LOWER(marker) = LOWER(?) AND observed_at >= ? AND observed_at <= ? ORDER BY observed_at ASC, id ASC`,
		memberID, marker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := make([]TrendPoint, 0)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.ObservedAt, &p.Value, &p.Unit, &p.Abnormal); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
