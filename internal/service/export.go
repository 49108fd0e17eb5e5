package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

// ExportService dumps the star-schema tables to headed CSV files for
// spreadsheet and BI consumption.
type ExportService struct {
	Marts *repository.MartRepo
	Log   zerolog.Logger
}

// ExportResult maps table name to exported row count.
type ExportResult map[string]int

// ExportAll writes one CSV per mart table into dir, creating it if needed.
func (s *ExportService) ExportAll(ctx context.Context, dir string) (ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir export dir: %w", err)
	}
	res := ExportResult{}
	for _, table := range repository.MartTables {
		n, err := s.exportTable(ctx, table, filepath.Join(dir, table+".csv"))
		if err != nil {
			return res, fmt.Errorf("export %s: %w", table, err)
		}
		res[table] = n
		s.Log.Info().Str("table", table).Int("rows", n).Msg("table exported")
	}
	return res, nil
}

func (s *ExportService) exportTable(ctx context.Context, table, path string) (int, error) {
	header, rows, err := s.Marts.ReadTable(ctx, table)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return 0, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return 0, err
	}
	return len(rows), f.Close()
}
