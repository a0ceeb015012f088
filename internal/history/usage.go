package history

import (
	"database/sql"
	"time"

	"github.com/pskel/usagebar/internal/usage"
)

// Row is one recorded reading, as served to the charts and the API.
type Row struct {
	Timestamp      string `json:"timestamp"`
	SessionPercent *int   `json:"session_percent"`
	WeeklyPercent  *int   `json:"weekly_percent"`
	SonnetPercent  *int   `json:"sonnet_percent"`
}

// Insert appends one snapshot. Only successful snapshots are ever passed in;
// the engine filters failures before persisting.
func (d *DB) Insert(snap usage.Snapshot) error {
	_, err := d.sql.Exec(`
		INSERT INTO usage_history (
			timestamp, session_percent, session_resets,
			weekly_percent, weekly_resets, sonnet_percent, sonnet_resets
		) VALUES (?,?,?,?,?,?,?)`,
		snap.Timestamp,
		nullableInt(snap.Session.Percent), snap.Session.Resets,
		nullableInt(snap.WeeklyAll.Percent), snap.WeeklyAll.Resets,
		nullableInt(snap.WeeklySonnet.Percent), snap.WeeklySonnet.Resets,
	)
	return err
}

// Since returns rows with timestamp >= now - days, oldest first.
func (d *DB) Since(days int) ([]Row, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format(timestampFormat)
	rows, err := d.sql.Query(`
		SELECT timestamp, session_percent, weekly_percent, sonnet_percent
		FROM usage_history
		WHERE timestamp >= ?
		ORDER BY timestamp ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recent returns the newest limit rows, newest first. Used for sparklines.
func (d *DB) Recent(limit int) ([]Row, error) {
	rows, err := d.sql.Query(`
		SELECT timestamp, session_percent, weekly_percent, sonnet_percent
		FROM usage_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(s rowScanner) (Row, error) {
	var r Row
	var sess, weekly, sonnet sql.NullInt64
	if err := s.Scan(&r.Timestamp, &sess, &weekly, &sonnet); err != nil {
		return Row{}, err
	}
	r.SessionPercent = fromNull(sess)
	r.WeeklyPercent = fromNull(weekly)
	r.SonnetPercent = fromNull(sonnet)
	return r, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
