package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sadopc/liftlog/internal/config"
	"github.com/sadopc/liftlog/internal/export"
	"github.com/sadopc/liftlog/internal/logging"
	"github.com/sadopc/liftlog/internal/migration"
	"github.com/sadopc/liftlog/internal/remote"
	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/tui"
)

var (
	configPath     = flag.String("config", config.DefaultPath(), "path to config.toml")
	env            = flag.String("env", "dev", "config section: dev or prod")
	seed           = flag.String("seed", "", "import a JSON export into local storage, or \"demo\" for sample data")
	auto           = flag.Bool("auto", false, "migrate without the interactive screen")
	offline        = flag.Bool("offline", false, "use an in-memory remote store")
	resetMigration = flag.Bool("reset-migration", false, "forget a previous migration or skip")
	exportPath     = flag.String("export", "", "write the local snapshot to this .json or .csv file and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath, *env)
	if err != nil {
		return err
	}

	logsPath := cfg.LogsPath
	if logsPath == "" {
		logsPath = filepath.Join(filepath.Dir(*configPath), "liftlog.log")
	}
	closer := logging.Setup(logging.Params{
		LogFileName:   logsPath,
		LogToStdout:   *auto,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.DBPath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	snapshots := migration.NewSnapshotStore(s)

	if *resetMigration {
		if err := snapshots.ResetMarker(ctx); err != nil {
			return err
		}
		log.Info("migration marker cleared")
	}
	if *seed != "" {
		if err := seedSnapshot(ctx, snapshots, *seed); err != nil {
			return err
		}
	}
	if *exportPath != "" {
		return exportSnapshot(ctx, snapshots, *exportPath)
	}

	gateway, cleanup, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	svc := migration.NewService(snapshots, gateway)

	if *auto {
		return autoMigrate(ctx, svc)
	}

	p := tea.NewProgram(tui.NewApp(ctx, svc, cfg.ErrorPreview), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if app, ok := final.(tui.App); ok {
		if summary := app.Summary(); summary != "" {
			fmt.Println(summary)
		}
	}
	return nil
}

func openGateway(ctx context.Context, cfg *config.Config) (migration.Gateway, func(), error) {
	if *offline {
		mem := remote.NewMemory(remote.StaticSession(offlineAccount(cfg)))
		return mem, func() { log.Infof("offline session ended: %s", mem) }, nil
	}

	if cfg.PostgresURL == "" {
		return nil, nil, errors.New("postgres_url is not configured; use -offline to try without a server")
	}
	pool, err := remote.Connect(ctx, cfg.PostgresURL, cfg.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	prometheus.MustRegister(pgxpoolprometheus.NewCollector(
		pool,
		map[string]string{"db_name": "liftlog"},
	))

	pg := remote.NewPostgres(pool, remote.TokenSession{
		Token:  cfg.AccessToken,
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
	})
	if cfg.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pg, pool.Close, nil
}

// offlineAccount picks the account id for the in-memory store: the
// configured one, else the access token's subject, else "offline".
func offlineAccount(cfg *config.Config) string {
	if cfg.OfflineAccount != "" {
		return cfg.OfflineAccount
	}
	if sub, ok := remote.UnverifiedSubject(cfg.AccessToken); ok {
		return sub
	}
	return "offline"
}

func autoMigrate(ctx context.Context, svc *migration.Service) error {
	var library []string
	if snap, ok := svc.PreviewLocalData(ctx); ok {
		library = snap.ExerciseLibrary
	}

	res, ran, err := svc.AutoMigrate(ctx)
	if err != nil {
		return err
	}
	if !ran {
		fmt.Println("Nothing to migrate.")
		return nil
	}
	fmt.Printf("Migrated %d records: %d workouts, %d body weights, %d exercises.\n",
		res.Total(), res.WorkoutsMigrated, res.BodyWeightsMigrated, res.ExercisesMigrated)
	for _, e := range res.Errors {
		fmt.Println("  " + e)
	}

	if res.Success {
		v, ok, err := svc.Verify(ctx, library)
		switch {
		case err != nil:
			log.Warnf("verify remote account: %s", err)
		case ok:
			fmt.Printf("Remote account holds %d exercises, %d workouts, %d body weights.\n",
				v.LibrarySize, v.Workouts, v.BodyWeights)
			if len(v.Missing) > 0 {
				fmt.Printf("  missing from remote library: %s\n", strings.Join(v.Missing, ", "))
			}
		}
	}

	if !res.Clean() {
		return errors.New("migration incomplete")
	}
	return nil
}

// seedSnapshot writes src into local storage. src is a JSON export path,
// or "demo" for generated sample data.
func seedSnapshot(ctx context.Context, snapshots *migration.SnapshotStore, src string) error {
	snap := demoSnapshot(time.Now())
	if src != "demo" {
		imported, err := export.FromJSON(src)
		if err != nil {
			return fmt.Errorf("seed from %s: %w", src, err)
		}
		snap = *imported
	}
	if snap.Empty() {
		return fmt.Errorf("seed from %s: no records", src)
	}
	if err := snapshots.WriteSnapshot(ctx, snap); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"source":      src,
		"workouts":    len(snap.Workouts),
		"bodyWeights": len(snap.BodyWeights),
		"exercises":   len(snap.ExerciseLibrary),
	}).Info("local snapshot seeded")
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server: %s", err)
	}
}

func exportSnapshot(ctx context.Context, snapshots *migration.SnapshotStore, path string) error {
	snap, ok := snapshots.ReadSnapshot(ctx)
	if !ok || snap.Empty() {
		return errors.New("no local data to export")
	}
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		err := export.ToCSV(snap, path)
		if err == nil {
			fmt.Println("Exported to " + path)
		}
		return err
	}
	if err := export.ToJSON(snap, path); err != nil {
		return err
	}
	fmt.Println("Exported to " + path)
	return nil
}

func demoSnapshot(now time.Time) migration.Snapshot {
	day := func(offset int) string {
		return now.AddDate(0, 0, -offset).Format("2006-01-02")
	}
	created := now.UTC().Format(time.RFC3339)
	return migration.Snapshot{
		Workouts: []migration.LocalWorkout{
			{ID: "1", ExerciseName: "bench press", Reps: 5, Weight: 80, Date: day(3), CreatedAt: created},
			{ID: "2", ExerciseName: "Squat", Reps: 5, Weight: 100, Date: day(3), CreatedAt: created},
			{ID: "3", ExerciseName: "  deadlift ", Reps: 3, Weight: 140, Date: day(1), CreatedAt: created},
		},
		BodyWeights: []migration.LocalBodyWeight{
			{ID: "1", Weight: 82.4, Date: day(3), CreatedAt: created},
			{ID: "2", Weight: 82.1, Date: day(1), CreatedAt: created},
		},
		ExerciseLibrary: []string{"Bench Press", "squat", "Deadlift", "Overhead Press"},
	}
}
