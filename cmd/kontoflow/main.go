package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sbruun/kontoflow/internal/config"
	"github.com/sbruun/kontoflow/internal/database"
	"github.com/sbruun/kontoflow/internal/database/repository"
	"github.com/sbruun/kontoflow/internal/logger"
	"github.com/sbruun/kontoflow/internal/service"
	"github.com/sbruun/kontoflow/internal/tui"
)

const usage = `kontoflow - personal finance pipeline

Usage:
  kontoflow load       [--csv-dir DIR]      load bank CSV exports into the raw table
  kontoflow transform                       rebuild staging, categorization and marts
  kontoflow export     [--dir DIR]          dump mart tables to CSV
  kontoflow run        [--skip-load] [--skip-export]
                                            load, transform and export in one go
  kontoflow dashboard                       open the terminal dashboard
  kontoflow review                          report near-duplicate raw rows
  kontoflow rules      --file FILE          replace the rule set from a CSV seed
`

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx := logger.WithContext(context.Background(), log)

	var cmdErr error
	switch os.Args[1] {
	case "load":
		cmdErr = runLoad(ctx, cfg, log, os.Args[2:])
	case "transform":
		cmdErr = runTransform(ctx, cfg, log)
	case "export":
		cmdErr = runExport(ctx, cfg, log, os.Args[2:])
	case "run":
		cmdErr = runPipeline(ctx, cfg, log, os.Args[2:])
	case "dashboard":
		cmdErr = runDashboard(ctx, cfg)
	case "review":
		cmdErr = runReview(ctx, cfg)
	case "rules":
		cmdErr = runRules(ctx, cfg, log, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if cmdErr != nil {
		log.Fatal().Err(cmdErr).Str("command", os.Args[1]).Msg("command failed")
	}
}

func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return db, nil
}

func runLoad(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	csvDir := fs.String("csv-dir", cfg.Ingest.CSVDir, "directory containing bank CSV exports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &service.IngestService{
		Raw:             repository.NewRawTransactionRepo(db),
		DefaultCurrency: cfg.Ingest.DefaultCurrency,
		Log:             log,
	}
	res, err := svc.ImportDir(ctx, *csvDir)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		log.Warn().Err(e).Msg("row skipped")
	}
	log.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).Msg("load complete")
	return nil
}

func runTransform(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := transformService(db, cfg, log)
	_, err = svc.Run(ctx)
	return err
}

func transformService(db *sql.DB, cfg config.Config, log zerolog.Logger) *service.TransformService {
	return &service.TransformService{
		DB:                 db,
		Raw:                repository.NewRawTransactionRepo(db),
		Categories:         repository.NewCategoryRepo(db),
		Rules:              repository.NewRuleRepo(db),
		BankName:           cfg.Accounts.BankName,
		DefaultAccountType: cfg.Accounts.DefaultType,
		AccountTypes:       cfg.Accounts.Types,
		CalendarStartYear:  cfg.Calendar.StartYear,
		CalendarEndYear:    cfg.Calendar.EndYear,
		Log:                log,
	}
}

func runExport(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dir := fs.String("dir", cfg.Export.Dir, "directory for exported CSV files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &service.ExportService{Marts: repository.NewMartRepo(db), Log: log}
	_, err = svc.ExportAll(ctx, *dir)
	return err
}

func runPipeline(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	skipLoad := fs.Bool("skip-load", false, "skip loading CSV data")
	skipExport := fs.Bool("skip-export", false, "skip the mart CSV export")
	csvDir := fs.String("csv-dir", cfg.Ingest.CSVDir, "directory containing bank CSV exports")
	exportDir := fs.String("export-dir", cfg.Export.Dir, "directory for exported CSV files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if !*skipLoad {
		ingest := &service.IngestService{
			Raw:             repository.NewRawTransactionRepo(db),
			DefaultCurrency: cfg.Ingest.DefaultCurrency,
			Log:             log,
		}
		res, err := ingest.ImportDir(ctx, *csvDir)
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			log.Warn().Err(e).Msg("row skipped")
		}
	}

	if _, err := transformService(db, cfg, log).Run(ctx); err != nil {
		return err
	}

	if !*skipExport {
		export := &service.ExportService{Marts: repository.NewMartRepo(db), Log: log}
		if _, err := export.ExportAll(ctx, *exportDir); err != nil {
			return err
		}
	}
	return nil
}

func runDashboard(ctx context.Context, cfg config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	app := tui.New(ctx, repository.NewMartRepo(db), cfg.UI.CurrencySymbol, cfg.UI.DateFormat)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runReview(ctx context.Context, cfg config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := &service.ReviewService{Raw: repository.NewRawTransactionRepo(db)}
	pairs, err := svc.FindNearDuplicates(ctx)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Println("No near-duplicate rows found.")
		return nil
	}
	for _, p := range pairs {
		fmt.Printf("similarity %.2f\n  A: %s  %s  %q\n  B: %s  %s  %q\n",
			p.Similarity,
			p.A.PostingDate.Format("2006-01-02"), p.A.Amount.StringFixed(2), p.A.Description,
			p.B.PostingDate.Format("2006-01-02"), p.B.Amount.StringFixed(2), p.B.Description)
	}
	fmt.Printf("%d candidate pair(s); the raw table was not modified.\n", len(pairs))
	return nil
}

func runRules(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	file := fs.String("file", "", "CSV seed file (pattern_type,pattern_value,category_key,priority)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := &service.RulesImportService{
		Rules:      repository.NewRuleRepo(db),
		Categories: repository.NewCategoryRepo(db),
	}
	n, err := svc.ImportCSV(ctx, f)
	if err != nil {
		return err
	}
	log.Info().Int("rules", n).Str("file", *file).Msg("rule set replaced; run the transform to recategorize")
	return nil
}
