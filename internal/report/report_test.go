package report

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/authhash"
	"github.com/NeuroWhAI/firemapserver/internal/models"
)

// fakeCaptcha always verifies successfully unless wantFail is set,
// letting tests focus on report logic without reaching into a real
// captcha.Bridge's private answer map.
type fakeCaptcha struct {
	wantFail bool
}

func (f fakeCaptcha) Verify(w http.ResponseWriter, r *http.Request, channel int, userAnswer string) bool {
	return !f.wantFail
}

type fakeStore struct {
	reports    map[int64]models.Report
	badReports map[int64]models.BadReport
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: make(map[int64]models.Report), badReports: make(map[int64]models.BadReport)}
}

func (f *fakeStore) InsertReport(r models.Report) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.reports[r.ID] = r
	return r.ID, nil
}

func (f *fakeStore) GetReport(id int64) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeStore) GetReportsWithin(window time.Duration) ([]models.Report, error) {
	cutoff := time.Now().Add(-window)
	var out []models.Report
	for _, r := range f.reports {
		if r.CreatedAt.After(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteReport(id int64) error {
	delete(f.reports, id)
	return nil
}

func (f *fakeStore) SetReportModeration(id int64, label, caption string) error {
	r := f.reports[id]
	r.ModerationLabel.String = label
	r.ModerationLabel.Valid = true
	r.ModerationCaption.String = caption
	r.ModerationCaption.Valid = true
	f.reports[id] = r
	return nil
}

func (f *fakeStore) InsertBadReport(b models.BadReport) error {
	f.badReports[int64(len(f.badReports)+1)] = b
	return nil
}

func (f *fakeStore) GetBadReports() ([]models.BadReport, error) {
	var out []models.BadReport
	for _, b := range f.badReports {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) DeleteBadReport(id int64) error {
	delete(f.badReports, id)
	return nil
}

func newTestService(t *testing.T, captchaFails bool) (*Service, *fakeStore) {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "upload")
	publicDir := filepath.Join(dir, "public")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	svc := New(store, fakeCaptcha{wantFail: captchaFails}, uploadDir, publicDir, nil, "admin", "s3cr3t")
	return svc, store
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	svc, _ := newTestService(t, false)

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()

	form := SubmitForm{Captcha: "000000", UserID: "a", UserPwd: "pass", Level: 2}
	if _, err := svc.Submit(rec, req, form); err == nil {
		t.Fatal("expected validation error for a 1-character user id")
	}
}

func TestSubmitRejectsWrongCaptcha(t *testing.T) {
	svc, _ := newTestService(t, true)

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()

	form := SubmitForm{Captcha: "000000", UserID: "abc", UserPwd: "pass", Level: 2}
	if _, err := svc.Submit(rec, req, form); err == nil {
		t.Fatal("expected captcha failure")
	}
}

func TestSubmitThenDeleteRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, false)

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()

	form := SubmitForm{
		Captcha: "000000", UserID: "abc", UserPwd: "pass",
		Latitude: 37.5, Longitude: 127.0, Level: 2, Description: "smoke visible",
	}
	id, err := svc.Submit(rec, req, form)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Delete("abc", "wrong", id); err == nil {
		t.Fatal("expected delete to fail with the wrong password")
	}
	if err := svc.Delete("abc", "pass", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSubmitFinalizesStagedImage(t *testing.T) {
	svc, _ := newTestService(t, false)

	raw := []byte{0x89, 'P', 'N', 'G'}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	key, err := svc.UploadImage(dataURI)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()

	form := SubmitForm{
		Captcha: "000000", UserID: "abc", UserPwd: "pass",
		Latitude: 37.5, Longitude: 127.0, Level: 1, ImgKey: key,
	}
	id, err := svc.Submit(rec, req, form)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec2, err := svc.GetReport(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec2.ImgPath.Valid {
		t.Fatal("expected a finalized image path")
	}
	if _, err := os.Stat(filepath.Join(svc.uploadDir, key)); !os.IsNotExist(err) {
		t.Fatal("expected the staged upload to be removed after finalization")
	}
	if _, err := os.Stat(filepath.Join(svc.publicImagesDir, key)); err != nil {
		t.Fatalf("expected the public copy to exist: %v", err)
	}
}

func TestRebuildJobOnlyIncludesRecentReports(t *testing.T) {
	svc, store := newTestService(t, false)
	store.reports[1] = models.Report{ID: 1, UserID: "a", CreatedAt: time.Now()}
	store.reports[2] = models.Report{ID: 2, UserID: "b", CreatedAt: time.Now().Add(-72 * time.Hour)}

	if _, err := svc.RebuildJob(nil); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	payload, ok := svc.Snapshot()
	if !ok {
		t.Fatal("expected a published snapshot")
	}
	if want := `"id":1`; !contains(payload, want) {
		t.Fatalf("expected recent report in payload, got %s", payload)
	}
	if contains(payload, `"id":2`) {
		t.Fatalf("expected stale report to be excluded, got %s", payload)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}

func TestGetReportJSONPopulatesCacheAndDeleteEvictsIt(t *testing.T) {
	svc, store := newTestService(t, false)

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()
	form := SubmitForm{
		Captcha: "000000", UserID: "abc", UserPwd: "pass",
		Latitude: 37.5, Longitude: 127.0, Level: 2, Description: "smoke visible",
	}
	id, err := svc.Submit(rec, req, form)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	svc.cacheMu.Lock()
	_, cachedAfterSubmit := svc.cache[id]
	svc.cacheMu.Unlock()
	if !cachedAfterSubmit {
		t.Fatal("expected submit to warm the per-id cache")
	}

	payload, ok, err := svc.GetReportJSON(id)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !contains(payload, `"description":"smoke visible"`) {
		t.Fatalf("expected the cached payload to include the description, got %s", payload)
	}

	// Drop the row out from under the store: a cache hit should still
	// serve the stale payload without touching the store again.
	delete(store.reports, id)
	payload2, ok, err := svc.GetReportJSON(id)
	if err != nil || !ok || payload2 != payload {
		t.Fatalf("expected a cache hit to bypass the store, got ok=%v err=%v payload=%s", ok, err, payload2)
	}

	store.reports[id] = models.Report{ID: id, UserID: "abc", UserPwdHash: authhash.Hash("pass")}
	if err := svc.Delete("abc", "pass", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	svc.cacheMu.Lock()
	_, stillCached := svc.cache[id]
	svc.cacheMu.Unlock()
	if stillCached {
		t.Fatal("expected delete to evict the per-id cache entry")
	}
}

func TestGetReportJSONMissReturnsNotOK(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, ok, err := svc.GetReportJSON(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for an unknown id")
	}
}

func TestAdminBadReportOpsRequireCredentials(t *testing.T) {
	svc, store := newTestService(t, false)
	store.badReports[1] = models.BadReport{ID: 1, ReportID: 5, Reason: "not a fire"}

	if _, err := svc.AdminListBadReports("admin", "wrong"); err == nil {
		t.Fatal("expected auth failure")
	}
	list, err := svc.AdminListBadReports("admin", "s3cr3t")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 bad report, got %v err=%v", list, err)
	}

	if err := svc.AdminDeleteBadReport("admin", "s3cr3t", 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
