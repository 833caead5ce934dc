// Package api wires every feed, wind, captcha, report, and shelter
// component into a single HTTP surface and runs it behind a graceful
// shutdown, mirroring the server lifecycle pattern of the rest of this
// codebase.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/captcha"
	"github.com/NeuroWhAI/firemapserver/internal/feed"
	"github.com/NeuroWhAI/firemapserver/internal/report"
	"github.com/NeuroWhAI/firemapserver/internal/shelter"
	"github.com/NeuroWhAI/firemapserver/internal/wind"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/NeuroWhAI/firemapserver/internal/metrics" // register metrics
)

// Server bundles every cache-backed component and serves them over
// HTTP. It holds no mutable state of its own beyond what it was built
// with; every read/write goes through the component's own lock.
type Server struct {
	port      string
	debug     bool
	staticDir string

	activeFire  *feed.ActiveFire
	cctv        *feed.Cctv
	fireEvent   *feed.FireEvent
	fireWarning *feed.FireWarning
	forecast    *feed.Forecast
	dangerPlace *feed.DangerPlace

	wind    *wind.Wind
	captcha *captcha.Bridge
	report  *report.Service
	shelter *shelter.Service
}

// NewServer assembles a Server from its already-constructed
// dependencies; none of them are started here, that's the scheduler's job.
func NewServer(
	port string,
	debug bool,
	staticDir string,
	activeFire *feed.ActiveFire,
	cctv *feed.Cctv,
	fireEvent *feed.FireEvent,
	fireWarning *feed.FireWarning,
	forecast *feed.Forecast,
	dangerPlace *feed.DangerPlace,
	windSvc *wind.Wind,
	captchaBridge *captcha.Bridge,
	reportSvc *report.Service,
	shelterSvc *shelter.Service,
) *Server {
	return &Server{
		port:        port,
		debug:       debug,
		staticDir:   staticDir,
		activeFire:  activeFire,
		cctv:        cctv,
		fireEvent:   fireEvent,
		fireWarning: fireWarning,
		forecast:    forecast,
		dangerPlace: dangerPlace,
		wind:        windSvc,
		captcha:     captchaBridge,
		report:      reportSvc,
		shelter:     shelterSvc,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/captcha", s.handleCaptcha)

	mux.HandleFunc("/active-fire-map", s.handleActiveFireMap)
	mux.HandleFunc("/cctv-map", s.handleCctvMap)
	mux.HandleFunc("/cctv", s.handleCctvByName)
	mux.HandleFunc("/fire-event-map", s.handleFireEventMap)
	mux.HandleFunc("/fire-warning", s.handleFireWarning)
	mux.HandleFunc("/fire-forecast-map", s.handleFireForecastMap)
	mux.HandleFunc("/danger-place-map", s.handleDangerPlaceMap)

	mux.HandleFunc("/wind-map-metadata", s.handleWindMetadata)
	mux.HandleFunc("/wind-map", s.handleWindImage)

	mux.HandleFunc("/report-map", s.handleReportMap)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/bad-report", s.handleBadReport)
	mux.HandleFunc("/upload-image", s.handleUploadImage)
	mux.HandleFunc("/admin/bad-report-list", s.handleAdminBadReportList)
	mux.HandleFunc("/admin/bad-report", s.handleAdminBadReport)

	mux.HandleFunc("/shelter-map", s.handleShelterMap)
	mux.HandleFunc("/shelter", s.handleShelter)
	mux.HandleFunc("/admin/shelter", s.handleAdminShelter)
	mux.HandleFunc("/admin/user-shelter-list", s.handleAdminUserShelterList)
	mux.HandleFunc("/admin/user-shelter", s.handleAdminUserShelter)
	mux.HandleFunc("/user-shelter", s.handleUserShelter)
	mux.HandleFunc("/eval-shelter", s.handleEvalShelter)

	mux.Handle("/", s.staticHandler())
	return mux
}

// staticHandler serves static/ verbatim, except that outside debug
// mode any path under test/ is hidden.
func (s *Server) staticHandler() http.Handler {
	fs := http.FileServer(http.Dir(s.staticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.debug && strings.HasPrefix(strings.TrimPrefix(r.URL.Path, "/"), "test/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
