package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/captcha"
	"github.com/NeuroWhAI/firemapserver/internal/feed"
	"github.com/NeuroWhAI/firemapserver/internal/models"
	"github.com/NeuroWhAI/firemapserver/internal/report"
	"github.com/NeuroWhAI/firemapserver/internal/shelter"
	"github.com/NeuroWhAI/firemapserver/internal/wind"
)

type fakeReportStore struct {
	reports map[int64]models.Report
	nextID  int64
}

func (f *fakeReportStore) InsertReport(r models.Report) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.reports[r.ID] = r
	return r.ID, nil
}
func (f *fakeReportStore) GetReport(id int64) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
func (f *fakeReportStore) GetReportsWithin(window time.Duration) ([]models.Report, error) {
	return nil, nil
}
func (f *fakeReportStore) DeleteReport(id int64) error { delete(f.reports, id); return nil }
func (f *fakeReportStore) SetReportModeration(id int64, label, caption string) error { return nil }
func (f *fakeReportStore) InsertBadReport(b models.BadReport) error                  { return nil }
func (f *fakeReportStore) GetBadReports() ([]models.BadReport, error)                { return nil, nil }
func (f *fakeReportStore) DeleteBadReport(id int64) error                            { return nil }

type fakeShelterStore struct{}

func (fakeShelterStore) InsertShelter(sh models.Shelter) (int64, error)  { return 1, nil }
func (fakeShelterStore) GetAllShelters() ([]models.Shelter, error)      { return nil, nil }
func (fakeShelterStore) UpdateShelterCounters(id int64, g, b int) error { return nil }
func (fakeShelterStore) DeleteShelter(id int64) error                  { return nil }
func (fakeShelterStore) InsertUserShelter(u models.UserShelter) (int64, error) {
	return 1, nil
}
func (fakeShelterStore) GetUserShelters() ([]models.UserShelter, error) { return nil, nil }
func (fakeShelterStore) DeleteUserShelter(id int64) error                { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "upload")
	publicDir := filepath.Join(dir, "public")
	staticDir := filepath.Join(dir, "static")
	for _, d := range []string{uploadDir, publicDir, staticDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	reportSvc := report.New(&fakeReportStore{reports: make(map[int64]models.Report)}, captcha.New(captcha.NewBasicRenderer()), uploadDir, publicDir, nil, "admin", "s3cr3t")
	shelterSvc := shelter.New(fakeShelterStore{}, captcha.New(captcha.NewBasicRenderer()), "admin", "s3cr3t")

	return NewServer(
		"0", false, staticDir,
		feed.NewActiveFire(http.DefaultClient),
		feed.NewCctv(http.DefaultClient, "key"),
		feed.NewFireEvent(http.DefaultClient),
		feed.NewFireWarning(http.DefaultClient),
		nil, // forecast feed left unset: not exercised by these tests
		feed.NewDangerPlace(),
		wind.New(http.DefaultClient, map[string]models.WindStation{}),
		captcha.New(captcha.NewBasicRenderer()),
		reportSvc,
		shelterSvc,
	)
}

func TestFeedEndpointsReturnServiceUnavailableBeforeFirstPublish(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/active-fire-map", "/cctv-map", "/fire-event-map", "/danger-place-map"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 before any publish, got %d", path, rec.Code)
		}
	}
}

func TestStaticHandlerHidesTestPathsOutsideDebug(t *testing.T) {
	srv := newTestServer(t)
	if err := os.WriteFile(filepath.Join(srv.staticDir, "index.html"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(srv.staticDir, "test"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srv.staticDir, "test", "probe.html"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/test/probe.html", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected test/ paths hidden outside debug, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected index.html to be served, got %d", rec.Code)
	}
}

func TestReportRoundTripThroughHTTP(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	captchaReq := httptest.NewRequest(http.MethodGet, "/captcha?channel=1", nil)
	captchaRec := httptest.NewRecorder()
	h.ServeHTTP(captchaRec, captchaReq)
	if captchaRec.Code != http.StatusOK {
		t.Fatalf("captcha issue: expected 200, got %d", captchaRec.Code)
	}
	cookies := captchaRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a captcha cookie to be set")
	}

	form := "captcha=wrong&user_id=abc&user_pwd=pass&latitude=37.5&longitude=127.0&lvl=2"
	postReq := httptest.NewRequest(http.MethodPost, "/report?"+form, nil)
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		postReq.AddCookie(c)
	}
	postRec := httptest.NewRecorder()
	h.ServeHTTP(postRec, postReq)
	if postRec.Code != http.StatusBadRequest {
		t.Fatalf("expected wrong captcha to be rejected with 400, got %d: %s", postRec.Code, postRec.Body.String())
	}
}

func TestShelterNotFoundBeforeAdminAdd(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/shelter?id=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown shelter, got %d", rec.Code)
	}
}
