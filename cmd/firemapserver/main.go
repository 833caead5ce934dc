// Command firemapserver runs the wildfire data aggregation service: a
// fixed set of feed/wind/report/shelter jobs on a periodic scheduler,
// served over HTTP as cached JSON and PNG artifacts.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NeuroWhAI/firemapserver/internal/api"
	"github.com/NeuroWhAI/firemapserver/internal/captcha"
	"github.com/NeuroWhAI/firemapserver/internal/config"
	"github.com/NeuroWhAI/firemapserver/internal/feed"
	"github.com/NeuroWhAI/firemapserver/internal/httputil"
	"github.com/NeuroWhAI/firemapserver/internal/report"
	"github.com/NeuroWhAI/firemapserver/internal/scheduler"
	"github.com/NeuroWhAI/firemapserver/internal/shelter"
	"github.com/NeuroWhAI/firemapserver/internal/store"
	"github.com/NeuroWhAI/firemapserver/internal/wind"
)

const (
	staticDir       = "static"
	uploadImagesDir = "upload/images"
	publicImagesDir = "static/images"

	districtCodePath = "data/district_code.txt"
	dangerPlacePath  = "data/danger_places.csv"
	shelterSeedPath  = "data/shelter.json"
	stationInfoPath  = "data/stninfo.csv"
)

func main() {
	cli, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	for _, dir := range []string{uploadImagesDir, publicImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create %s: %v", dir, err)
		}
	}

	dbPath := cli.DBPath
	if cli.DatabaseURL != "" {
		dbPath = cli.DatabaseURL
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Printf("warning: could not load Asia/Seoul timezone, using UTC: %v", err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	client := httputil.NewClient()

	activeFire := feed.NewActiveFire(client)
	cctv := feed.NewCctv(client, cli.CctvKey)
	fireEvent := feed.NewFireEvent(client)
	fireWarning := feed.NewFireWarning(client)
	forecastFeed, err := feed.NewForecast(client, districtCodePath)
	if err != nil {
		log.Fatalf("load district codes: %v", err)
	}
	dangerPlace := feed.NewDangerPlace()
	if err := dangerPlace.Load(dangerPlacePath, cli.FTPSeedHost, "danger_places.csv"); err != nil {
		log.Fatalf("load danger places: %v", err)
	}

	stations, err := wind.LoadStations(stationInfoPath)
	if err != nil {
		log.Fatalf("load station info: %v", err)
	}
	windSvc := wind.New(client, stations)

	captchaBridge := captcha.New(captcha.NewBasicRenderer())

	var moderator report.Moderator
	if cli.OpenAIAPIKey != "" {
		m, err := report.NewOpenAIModerator()
		if err != nil {
			log.Printf("report photo moderation disabled: %v", err)
		} else {
			moderator = m
		}
	}
	reportSvc := report.New(st, captchaBridge, uploadImagesDir, publicImagesDir, moderator, cli.AdminID, cli.AdminPwd)

	shelterSvc := shelter.New(st, captchaBridge, cli.AdminID, cli.AdminPwd)
	if err := shelterSvc.Init(shelterSeedPath); err != nil {
		log.Fatalf("init shelters: %v", err)
	}

	sched := scheduler.New()
	sched.Register("active_fire", 15*time.Minute, activeFire.Job)
	sched.Register("cctv", 3*time.Minute, cctv.Job)
	sched.Register("fire_event", 5*time.Minute, fireEvent.Job)
	sched.Register("fire_warning", 5*time.Minute, fireWarning.Job)
	sched.Register("fire_forecast", 15*time.Minute, forecastFeed.Job)
	sched.Register("wind", 5*time.Minute, windSvc.Job)
	sched.Register("report_rebuild", 30*time.Second, reportSvc.RebuildJob)
	sched.Register("shelter_data", 5*time.Minute, shelterSvc.DataJob)
	sched.Register("shelter_update", 60*time.Minute, shelterSvc.UpdateJob)

	if cli.Once {
		log.Println("running every job once")
		ctx := context.Background()
		for _, job := range []func(context.Context) (time.Duration, error){
			activeFire.Job, cctv.Job, fireEvent.Job, fireWarning.Job, forecastFeed.Job,
			windSvc.Job, reportSvc.RebuildJob, shelterSvc.DataJob,
		} {
			if _, err := job(ctx); err != nil {
				log.Printf("job error: %v", err)
			}
		}
		return
	}

	server := api.NewServer(
		cli.Port, cli.Debug(), staticDir,
		activeFire, cctv, fireEvent, fireWarning, forecastFeed, dangerPlace,
		windSvc, captchaBridge, reportSvc, shelterSvc,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoPoll {
		go sched.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
