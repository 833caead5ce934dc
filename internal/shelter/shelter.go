// Package shelter implements the emergency-shelter roster: an admin-
// curated cache seeded from local data, public up/down evaluations,
// and user-contributed shelter proposals awaiting admin review.
package shelter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/authhash"
	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
)

const (
	dataJobPeriod   = 5 * time.Minute
	updateJobPeriod = 60 * time.Minute
	updateRetries   = 3
)

const (
	captchaChannelUserShelter = 3
	captchaChannelEval        = 4
)

// Store is the persistence surface this package needs from
// internal/store, kept as an interface so tests can fake it.
type Store interface {
	InsertShelter(sh models.Shelter) (int64, error)
	GetAllShelters() ([]models.Shelter, error)
	UpdateShelterCounters(id int64, recentGood, recentBad int) error
	DeleteShelter(id int64) error
	InsertUserShelter(u models.UserShelter) (int64, error)
	GetUserShelters() ([]models.UserShelter, error)
	DeleteUserShelter(id int64) error
}

// CaptchaVerifier is the subset of captcha.Bridge this package needs.
type CaptchaVerifier interface {
	Verify(w http.ResponseWriter, r *http.Request, channel int, userAnswer string) bool
}

// entry is the in-memory mirror of one shelter row, tracking whether
// its per-shelter JSON cache and its DB row are still up to date with
// the live recentGood/recentBad counters.
type entry struct {
	shelter   models.Shelter
	jsonCache string
	cached    bool
	synced    bool
}

// Service caches the full shelter roster in memory, satisfying reads
// without touching the database, and periodically flushes counter
// changes back to Store.
type Service struct {
	mu       sync.RWMutex
	shelters map[int64]*entry

	store   Store
	captcha CaptchaVerifier

	publicMap *cache.Slot[string]

	adminID      string
	adminPwdHash uint64
}

func New(store Store, bridge CaptchaVerifier, adminID, adminPwd string) *Service {
	return &Service{
		shelters:     make(map[int64]*entry),
		store:        store,
		captcha:      bridge,
		publicMap:    cache.NewSlot[string](),
		adminID:      adminID,
		adminPwdHash: authhash.Hash(adminPwd),
	}
}

// seedShelter is one row of data/shelter.json.
type seedShelter struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Capacity  int     `json:"capacity"`
	Area      float64 `json:"area"`
}

type seedFile struct {
	Shelters []seedShelter `json:"shelters"`
}

// Init loads the shelter roster into memory. If the store is empty, it
// seeds from seedPath (data/shelter.json), inserting each row into
// Store before caching it; otherwise it loads the existing rows as-is.
func (s *Service) Init(seedPath string) error {
	existing, err := s.store.GetAllShelters()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(existing) > 0 {
		for _, sh := range existing {
			s.shelters[sh.ID] = &entry{shelter: sh, synced: true}
		}
		return nil
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return err
	}

	for _, row := range seed.Shelters {
		sh := models.Shelter{
			Name:      row.Name,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Info:      formatCapacityInfo(row.Capacity, row.Area),
		}
		id, err := s.store.InsertShelter(sh)
		if err != nil {
			return err
		}
		sh.ID = id
		sh.Synced = true
		s.shelters[id] = &entry{shelter: sh, synced: true}
	}
	return nil
}

func formatCapacityInfo(capacity int, area float64) string {
	return fmt.Sprintf("수용: %d명, 면적: %v㎡", capacity, area)
}

// SnapshotMap returns the most recently published public shelter-map JSON.
func (s *Service) SnapshotMap() (string, bool) {
	return s.publicMap.Load()
}

// SnapshotShelter returns the cached per-shelter JSON for id.
func (s *Service) SnapshotShelter(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.shelters[id]
	if !ok || !e.cached {
		return "", false
	}
	return e.jsonCache, true
}

// AdminAdd inserts a new shelter, gated on admin credentials.
func (s *Service) AdminAdd(form AdminForm) (int64, error) {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, form.AdminID, form.AdminPwd) {
		return 0, errors.New("authentication failed")
	}

	sh := models.Shelter{
		Name:      form.Name,
		Latitude:  form.Latitude,
		Longitude: form.Longitude,
		Info:      form.Info,
	}
	id, err := s.store.InsertShelter(sh)
	if err != nil {
		return 0, err
	}
	sh.ID = id
	sh.Synced = true

	s.mu.Lock()
	s.shelters[id] = &entry{shelter: sh, synced: true}
	s.mu.Unlock()

	return id, nil
}

// AdminDelete removes a shelter, gated on admin credentials.
func (s *Service) AdminDelete(adminID, adminPwd string, id int64) error {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, adminID, adminPwd) {
		return errors.New("authentication failed")
	}
	if err := s.store.DeleteShelter(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.shelters, id)
	s.mu.Unlock()
	return nil
}

// AdminListUserShelters returns every publicly proposed shelter, gated
// on admin credentials.
func (s *Service) AdminListUserShelters(adminID, adminPwd string) ([]models.UserShelter, error) {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, adminID, adminPwd) {
		return nil, errors.New("authentication failed")
	}
	return s.store.GetUserShelters()
}

// AdminDeleteUserShelter removes a publicly proposed shelter, gated on
// admin credentials.
func (s *Service) AdminDeleteUserShelter(adminID, adminPwd string, id int64) error {
	if !authhash.CheckAdmin(s.adminID, s.adminPwdHash, adminID, adminPwd) {
		return errors.New("authentication failed")
	}
	return s.store.DeleteUserShelter(id)
}

// SubmitUserShelter records a publicly proposed shelter, gated on the
// channel-3 captcha cookie.
func (s *Service) SubmitUserShelter(w http.ResponseWriter, r *http.Request, form UserForm) (int64, error) {
	if !s.captcha.Verify(w, r, captchaChannelUserShelter, form.Captcha) {
		return 0, errors.New("wrong captcha")
	}
	if err := form.verifyError(); err != nil {
		return 0, err
	}

	return s.store.InsertUserShelter(models.UserShelter{
		Name:      form.Name,
		Latitude:  form.Latitude,
		Longitude: form.Longitude,
		Info:      form.Info,
		Evidence:  form.Evidence,
	})
}

// Eval records an up/down vote against shelter id, gated on the
// channel-4 captcha cookie, and marks it dirty for the next data/update
// job passes.
func (s *Service) Eval(w http.ResponseWriter, r *http.Request, captchaAnswer string, id int64, score int) (good, bad int, err error) {
	if !s.captcha.Verify(w, r, captchaChannelEval, captchaAnswer) {
		return 0, 0, errors.New("wrong captcha")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.shelters[id]
	if !ok {
		return 0, 0, errors.New("can't find a shelter")
	}

	if score > 0 {
		e.shelter.RecentGood++
		metrics.ShelterEvaluationsTotal.WithLabelValues("up").Inc()
	} else if score < 0 {
		e.shelter.RecentBad++
		metrics.ShelterEvaluationsTotal.WithLabelValues("down").Inc()
	}
	e.cached = false
	e.synced = false

	return e.shelter.RecentGood, e.shelter.RecentBad, nil
}

// DataJob regenerates the per-shelter JSON for any dirty entry and
// rebuilds the public shelter-map JSON, every 5 minutes.
func (s *Service) DataJob(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	type summary struct {
		ID        int64   `json:"id"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Good      int     `json:"good"`
		Bad       int     `json:"bad"`
	}
	summaries := make([]summary, 0, len(s.shelters))

	for id, e := range s.shelters {
		if !e.cached {
			payload, err := json.Marshal(struct {
				ID        int64   `json:"id"`
				Name      string  `json:"name"`
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
				Info      string  `json:"info"`
				Good      int     `json:"good"`
				Bad       int     `json:"bad"`
			}{id, e.shelter.Name, e.shelter.Latitude, e.shelter.Longitude, e.shelter.Info, e.shelter.RecentGood, e.shelter.RecentBad})
			if err == nil {
				e.jsonCache = string(payload)
				e.cached = true
			}
		}
		summaries = append(summaries, summary{id, e.shelter.Latitude, e.shelter.Longitude, e.shelter.RecentGood, e.shelter.RecentBad})
	}
	s.mu.Unlock()

	payload, err := json.Marshal(struct {
		Shelters []summary `json:"shelters"`
		Size     int       `json:"size"`
	}{summaries, len(summaries)})
	if err != nil {
		return dataJobPeriod, err
	}
	s.publicMap.Store(string(payload))
	return dataJobPeriod, nil
}

// UpdateJob flushes dirty counters to Store (retrying up to 3 times
// each), then decrements every non-zero counter by 1, every 60 minutes.
func (s *Service) UpdateJob(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.shelters {
		if e.synced {
			continue
		}
		var flushErr error
		for attempt := 0; attempt < updateRetries; attempt++ {
			if flushErr = s.store.UpdateShelterCounters(id, e.shelter.RecentGood, e.shelter.RecentBad); flushErr == nil {
				break
			}
		}
		if flushErr == nil {
			e.synced = true
		}
	}

	for _, e := range s.shelters {
		changed := false
		if e.shelter.RecentGood > 0 {
			e.shelter.RecentGood--
			changed = true
		}
		if e.shelter.RecentBad > 0 {
			e.shelter.RecentBad--
			changed = true
		}
		if changed {
			e.cached = false
			e.synced = false
		}
	}

	return updateJobPeriod, nil
}
