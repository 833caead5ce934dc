// Package report implements the user-submitted fire-sighting report
// subsystem: form validation, staged image upload/finalization,
// captcha-gated submission and deletion, and the periodic rebuild of
// the public report-map cache.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/authhash"
	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
)

// maxReportCacheEntries bounds the per-id read-through cache; it is
// cleared outright on overflow rather than LRU-evicted.
const maxReportCacheEntries = 512

// reportWindow is how far back the public report map looks, matching
// the 48-hour staleness rule applied everywhere reports are surfaced.
const reportWindow = 48 * time.Hour

const rebuildPeriod = 30 * time.Second
const rebuildRetryDelay = 2 * time.Second

const captchaChannelSubmit = 1
const captchaChannelBadReport = 2

// Store is the persistence surface this package needs from
// internal/store, kept as an interface so tests can fake it.
type Store interface {
	InsertReport(r models.Report) (int64, error)
	GetReport(id int64) (*models.Report, error)
	GetReportsWithin(window time.Duration) ([]models.Report, error)
	DeleteReport(id int64) error
	SetReportModeration(id int64, label, caption string) error
	InsertBadReport(b models.BadReport) error
	GetBadReports() ([]models.BadReport, error)
	DeleteBadReport(id int64) error
}

// Moderator optionally captions and flags a finalized report photo.
// A nil Moderator disables the feature entirely.
type Moderator interface {
	Moderate(ctx context.Context, imagePath string) (label, caption string, err error)
}

// CaptchaVerifier is the subset of captcha.Bridge this package needs.
// *captcha.Bridge satisfies it directly.
type CaptchaVerifier interface {
	Verify(w http.ResponseWriter, r *http.Request, channel int, userAnswer string) bool
}

// Service wires report submission, deletion, and moderation against a
// Store, a shared captcha verifier, and the staging/public image
// directories.
type Service struct {
	store           Store
	captcha         CaptchaVerifier
	uploadDir       string
	publicImagesDir string
	moderator       Moderator
	publicMap       *cache.Slot[string]
	adminID         string
	adminPwdHash    uint64

	cacheMu sync.Mutex
	cache   map[int64]string
}

func New(store Store, bridge CaptchaVerifier, uploadDir, publicImagesDir string, moderator Moderator, adminID, adminPwd string) *Service {
	return &Service{
		store:           store,
		captcha:         bridge,
		uploadDir:       uploadDir,
		publicImagesDir: publicImagesDir,
		moderator:       moderator,
		publicMap:       cache.NewSlot[string](),
		adminID:         adminID,
		adminPwdHash:    authhash.Hash(adminPwd),
		cache:           make(map[int64]string),
	}
}

// Snapshot returns the most recently published public report-map JSON.
func (s *Service) Snapshot() (string, bool) {
	return s.publicMap.Load()
}

// GetReport returns a single full report row, or nil if it doesn't exist.
func (s *Service) GetReport(id int64) (*models.Report, error) {
	return s.store.GetReport(id)
}

// reportView is the full single-report JSON shape served over HTTP,
// flattening the store's nullable image path into a plain string.
type reportView struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"userId"`
	UserPwd     string  `json:"userPwd"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	CreatedAt   int64   `json:"createdAt"`
	Level       int     `json:"level"`
	Description string  `json:"description"`
	ImgPath     string  `json:"imgPath"`
}

func encodeReportView(rec *models.Report) (string, error) {
	v := reportView{
		ID:          rec.ID,
		UserID:      rec.UserID,
		UserPwd:     strconv.FormatUint(rec.UserPwdHash, 10),
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		CreatedAt:   rec.CreatedAt.Unix(),
		Level:       rec.Level,
		Description: rec.Description,
	}
	if rec.ImgPath.Valid {
		v.ImgPath = rec.ImgPath.String
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetReportJSON returns the pre-serialized single-report JSON for id,
// read through a bounded cache: a hit is served straight from memory; a
// miss falls through to Store and populates the cache. Returns ok=false
// if the report doesn't exist.
func (s *Service) GetReportJSON(id int64) (payload string, ok bool, err error) {
	s.cacheMu.Lock()
	if payload, hit := s.cache[id]; hit {
		s.cacheMu.Unlock()
		return payload, true, nil
	}
	s.cacheMu.Unlock()

	rec, err := s.store.GetReport(id)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	payload, err = encodeReportView(rec)
	if err != nil {
		return "", false, err
	}
	s.putCache(id, payload)
	return payload, true, nil
}

// putCache inserts payload under id, clearing the whole cache first if
// it would otherwise grow past maxReportCacheEntries.
func (s *Service) putCache(id int64, payload string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if _, exists := s.cache[id]; !exists && len(s.cache) >= maxReportCacheEntries {
		s.cache = make(map[int64]string)
	}
	s.cache[id] = payload
}

// evictCache removes id from the per-id cache, if present.
func (s *Service) evictCache(id int64) {
	s.cacheMu.Lock()
	delete(s.cache, id)
	s.cacheMu.Unlock()
}

// publicReport is the stripped-down projection served by the
// periodically rebuilt report map: no description or image path.
type publicReport struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"userId"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CreatedTime int64   `json:"createdTime"`
	Level       int     `json:"lvl"`
}

// Submit validates form, verifies the channel-1 captcha cookie on r,
// finalizes any staged image, hashes the password, and inserts the
// report. Returns the new report id.
func (s *Service) Submit(w http.ResponseWriter, r *http.Request, form SubmitForm) (int64, error) {
	if !s.captcha.Verify(w, r, captchaChannelSubmit, form.Captcha) {
		metrics.ReportSubmissionsTotal.WithLabelValues("captcha_failed").Inc()
		return 0, errors.New("wrong captcha")
	}

	if err := form.verifyError(); err != nil {
		metrics.ReportSubmissionsTotal.WithLabelValues("invalid").Inc()
		return 0, err
	}

	var imgPath string
	if form.ImgKey != "" {
		path, err := s.finalizeImage(form.ImgKey)
		if err != nil {
			metrics.ReportSubmissionsTotal.WithLabelValues("image_error").Inc()
			return 0, err
		}
		imgPath = path
	}

	rec := models.Report{
		UserID:      form.UserID,
		UserPwdHash: authhash.Hash(form.UserPwd),
		Latitude:    form.Latitude,
		Longitude:   form.Longitude,
		Level:       form.Level,
		Description: form.Description,
		CreatedAt:   time.Now(),
	}
	if imgPath != "" {
		rec.ImgPath.String = imgPath
		rec.ImgPath.Valid = true
	}

	id, err := s.store.InsertReport(rec)
	if err != nil {
		metrics.ReportSubmissionsTotal.WithLabelValues("db_error").Inc()
		return 0, err
	}
	rec.ID = id

	if payload, err := encodeReportView(&rec); err == nil {
		s.putCache(id, payload)
	}

	metrics.ReportSubmissionsTotal.WithLabelValues("success").Inc()
	if rec.ImgPath.Valid {
		s.kickModeration(id, rec.ImgPath.String)
	}
	return id, nil
}

// Delete removes a report after checking that userID/userPwd hash
// matches the stored owner, then deletes the finalized image if any.
func (s *Service) Delete(userID, userPwd string, id int64) error {
	rec, err := s.store.GetReport(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.New("report not found")
	}
	if rec.UserID != userID || rec.UserPwdHash != authhash.Hash(userPwd) {
		return errors.New("authentication failed")
	}

	if rec.ImgPath.Valid {
		removeImageIfExists(s.publicImagesDir, rec.ImgPath.String)
	}
	if err := s.store.DeleteReport(id); err != nil {
		return err
	}
	s.evictCache(id)
	return nil
}

func removeImageIfExists(publicImagesDir, publicPath string) {
	os.Remove(filepath.Join(publicImagesDir, filepath.Base(publicPath)))
}

// SubmitBadReport flags an existing report as spurious, gated on the
// channel-2 captcha cookie.
func (s *Service) SubmitBadReport(w http.ResponseWriter, r *http.Request, form BadReportForm) (int64, error) {
	if !s.captcha.Verify(w, r, captchaChannelBadReport, form.Captcha) {
		return 0, errors.New("wrong captcha")
	}
	if err := form.verifyError(); err != nil {
		return 0, err
	}

	existing, err := s.store.GetReport(form.ReportID)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, errors.New("report not found")
	}

	if err := s.store.InsertBadReport(models.BadReport{ReportID: form.ReportID, Reason: form.Reason}); err != nil {
		return 0, err
	}
	return form.ReportID, nil
}

// AdminListBadReports returns every spurious-report flag, gated on
// admin credentials.
func (s *Service) AdminListBadReports(adminID, adminPwd string) ([]models.BadReport, error) {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, adminID, adminPwd) {
		return nil, errors.New("authentication failed")
	}
	return s.store.GetBadReports()
}

// AdminDeleteBadReport removes a spurious-report flag, gated on admin
// credentials.
func (s *Service) AdminDeleteBadReport(adminID, adminPwd string, id int64) error {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, adminID, adminPwd) {
		return errors.New("authentication failed")
	}
	return s.store.DeleteBadReport(id)
}

// RebuildJob re-queries reports within the last 48 hours and republishes
// the stripped public projection. Matches the scheduler.Job signature
// so it can be registered directly.
func (s *Service) RebuildJob(ctx context.Context) (time.Duration, error) {
	reports, err := s.store.GetReportsWithin(reportWindow)
	if err != nil {
		return rebuildRetryDelay, err
	}

	parts := make([]publicReport, 0, len(reports))
	for _, rec := range reports {
		parts = append(parts, publicReport{
			ID:          rec.ID,
			UserID:      rec.UserID,
			Latitude:    rec.Latitude,
			Longitude:   rec.Longitude,
			CreatedTime: rec.CreatedAt.Unix(),
			Level:       rec.Level,
		})
	}

	payload, err := json.Marshal(struct {
		Reports []publicReport `json:"reports"`
		Size    int            `json:"size"`
	}{Reports: parts, Size: len(parts)})
	if err != nil {
		return rebuildRetryDelay, err
	}

	s.publicMap.Store(string(payload))
	return rebuildPeriod, nil
}

// kickModeration fires a best-effort background caption/moderation
// pass. Failure or an absent moderator never blocks or fails the
// report submission that triggered it.
func (s *Service) kickModeration(id int64, publicImgPath string) {
	if s.moderator == nil {
		return
	}
	go func() {
		fullPath := filepath.Join(s.publicImagesDir, filepath.Base(publicImgPath))
		label, caption, err := s.moderator.Moderate(context.Background(), fullPath)
		if err != nil {
			return
		}
		_ = s.store.SetReportModeration(id, label, caption)
	}()
}
