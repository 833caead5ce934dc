package store

import (
	"database/sql"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/models"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

// InsertReport stores a new report and returns its assigned id.
func (s *Store) InsertReport(r models.Report) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO reports (user_id, user_pwd_hash, latitude, longitude, lvl, description, img_path, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.UserID, int64(r.UserPwdHash), r.Latitude, r.Longitude, r.Level, r.Description, r.ImgPath, r.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetReport fetches a single report by id, or nil if it doesn't exist.
func (s *Store) GetReport(id int64) (*models.Report, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, user_pwd_hash, latitude, longitude, lvl, description, img_path, created_time, moderation_label, moderation_caption
		FROM reports WHERE id = ?
	`, id)

	var r models.Report
	var pwdHash int64
	err := row.Scan(&r.ID, &r.UserID, &pwdHash, &r.Latitude, &r.Longitude, &r.Level, &r.Description, &r.ImgPath, &r.CreatedAt, &r.ModerationLabel, &r.ModerationCaption)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.UserPwdHash = uint64(pwdHash)
	return &r, nil
}

// GetReportsWithin returns every report created within the last window,
// ordered most recent first.
func (s *Store) GetReportsWithin(window time.Duration) ([]models.Report, error) {
	cutoff := time.Now().Add(-window)
	rows, err := s.db.Query(`
		SELECT id, user_id, user_pwd_hash, latitude, longitude, lvl, description, img_path, created_time, moderation_label, moderation_caption
		FROM reports WHERE created_time >= ? ORDER BY created_time DESC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		var pwdHash int64
		if err := rows.Scan(&r.ID, &r.UserID, &pwdHash, &r.Latitude, &r.Longitude, &r.Level, &r.Description, &r.ImgPath, &r.CreatedAt, &r.ModerationLabel, &r.ModerationCaption); err != nil {
			return nil, err
		}
		r.UserPwdHash = uint64(pwdHash)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DeleteReport removes a report by id.
func (s *Store) DeleteReport(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reports WHERE id = ?`, id)
	return err
}

// SetReportModeration stores the outcome of an optional moderation pass.
func (s *Store) SetReportModeration(id int64, label, caption string) error {
	_, err := s.db.Exec(`UPDATE reports SET moderation_label = ?, moderation_caption = ? WHERE id = ?`, label, caption, id)
	return err
}

// InsertBadReport records a spurious-report flag against an existing report.
func (s *Store) InsertBadReport(b models.BadReport) error {
	_, err := s.db.Exec(`INSERT INTO bad_reports (report_id, reason) VALUES (?, ?)`, b.ReportID, b.Reason)
	return err
}

// GetBadReports returns every spurious-report flag on record.
func (s *Store) GetBadReports() ([]models.BadReport, error) {
	rows, err := s.db.Query(`SELECT id, report_id, reason FROM bad_reports`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.BadReport
	for rows.Next() {
		var b models.BadReport
		if err := rows.Scan(&b.ID, &b.ReportID, &b.Reason); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// DeleteBadReport removes a spurious-report flag by id.
func (s *Store) DeleteBadReport(id int64) error {
	_, err := s.db.Exec(`DELETE FROM bad_reports WHERE id = ?`, id)
	return err
}

// InsertShelter stores an admin-authored shelter and returns its id.
func (s *Store) InsertShelter(sh models.Shelter) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO shelters (name, latitude, longitude, info, recent_good, recent_bad)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sh.Name, sh.Latitude, sh.Longitude, sh.Info, sh.RecentGood, sh.RecentBad)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAllShelters returns every admin-authored shelter.
func (s *Store) GetAllShelters() ([]models.Shelter, error) {
	rows, err := s.db.Query(`SELECT id, name, latitude, longitude, info, recent_good, recent_bad FROM shelters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shelters []models.Shelter
	for rows.Next() {
		var sh models.Shelter
		if err := rows.Scan(&sh.ID, &sh.Name, &sh.Latitude, &sh.Longitude, &sh.Info, &sh.RecentGood, &sh.RecentBad); err != nil {
			return nil, err
		}
		sh.Synced = true
		shelters = append(shelters, sh)
	}
	return shelters, rows.Err()
}

// UpdateShelterCounters flushes the in-memory recent_good/recent_bad
// counters for a shelter back to storage.
func (s *Store) UpdateShelterCounters(id int64, recentGood, recentBad int) error {
	_, err := s.db.Exec(`UPDATE shelters SET recent_good = ?, recent_bad = ? WHERE id = ?`, recentGood, recentBad, id)
	return err
}

// DeleteShelter removes an admin-authored shelter by id.
func (s *Store) DeleteShelter(id int64) error {
	_, err := s.db.Exec(`DELETE FROM shelters WHERE id = ?`, id)
	return err
}

// InsertUserShelter stores a publicly proposed shelter and returns its id.
func (s *Store) InsertUserShelter(u models.UserShelter) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO user_shelters (name, latitude, longitude, info, evidence)
		VALUES (?, ?, ?, ?, ?)
	`, u.Name, u.Latitude, u.Longitude, u.Info, u.Evidence)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserShelters returns every publicly proposed shelter awaiting review.
func (s *Store) GetUserShelters() ([]models.UserShelter, error) {
	rows, err := s.db.Query(`SELECT id, name, latitude, longitude, info, evidence FROM user_shelters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.UserShelter
	for rows.Next() {
		var u models.UserShelter
		if err := rows.Scan(&u.ID, &u.Name, &u.Latitude, &u.Longitude, &u.Info, &u.Evidence); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// DeleteUserShelter removes a publicly proposed shelter by id.
func (s *Store) DeleteUserShelter(id int64) error {
	_, err := s.db.Exec(`DELETE FROM user_shelters WHERE id = ?`, id)
	return err
}
