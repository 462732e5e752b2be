package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// A drug with no prior ledger rows starts its fold at twice the reorder
// level, which matches the restock target the catalog assumes.
const initialStockFactor = 2

// FileSource lists and streams files, normally backed by DriveClient.
type FileSource interface {
	ListFiles(folderID string) ([]*DriveFile, error)
	DownloadFile(fileID string, w io.Writer) error
}

// Sink persists the catalog rows and ledger records an ingest produces.
type Sink interface {
	UpsertDrug(ctx context.Context, drug *domain.Drug) (int64, error)
	LatestClosingStock(ctx context.Context, drugID int64) (float64, bool, error)
	InsertUsageRecords(ctx context.Context, records []domain.UsageRecord) error
}

type Service struct {
	files FileSource
	sink  Sink
}

func NewService(files FileSource, sink Sink) *Service {
	return &Service{files: files, sink: sink}
}

// Report summarizes one ingest run.
type Report struct {
	FilesIngested  int `json:"files_ingested"`
	RowsParsed     int `json:"rows_parsed"`
	DrugsSeen      int `json:"drugs_seen"`
	RecordsWritten int `json:"records_written"`
}

// IngestFile downloads one CSV from Drive and folds its rows into the
// ledger. The download is streamed through a pipe so large exports never
// land on disk.
func (s *Service) IngestFile(ctx context.Context, fileID string) (*Report, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.files.DownloadFile(fileID, pw))
	}()

	rows, err := ParseUsageCSV(pr)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileID, err)
	}

	report, err := s.ingestRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	report.FilesIngested = 1

	return report, nil
}

// IngestFolder ingests every CSV in a Drive folder, in name order so daily
// exports land chronologically.
func (s *Service) IngestFolder(ctx context.Context, folderID string) (*Report, error) {
	files, err := s.files.ListFiles(folderID)
	if err != nil {
		return nil, err
	}

	var csvFiles []*DriveFile
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			csvFiles = append(csvFiles, f)
		}
	}
	sort.Slice(csvFiles, func(i, j int) bool { return csvFiles[i].Name < csvFiles[j].Name })

	total := &Report{}
	for _, f := range csvFiles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		report, err := s.IngestFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", f.Name, err)
		}

		log.Info().
			Str("file", f.Name).
			Int("rows", report.RowsParsed).
			Int("records", report.RecordsWritten).
			Msg("ingested usage export")

		total.FilesIngested++
		total.RowsParsed += report.RowsParsed
		total.DrugsSeen += report.DrugsSeen
		total.RecordsWritten += report.RecordsWritten
	}

	return total, nil
}

func (s *Service) ingestRows(ctx context.Context, rows []UsageRow) (*Report, error) {
	report := &Report{RowsParsed: len(rows)}

	byDrug := make(map[string][]UsageRow)
	for _, row := range rows {
		byDrug[row.DrugName] = append(byDrug[row.DrugName], row)
	}

	names := make([]string, 0, len(byDrug))
	for name := range byDrug {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		drugRows := byDrug[name]
		first := drugRows[0]

		reorderQty := first.ReorderQuantity
		if reorderQty <= 0 {
			reorderQty = first.ReorderLevel * initialStockFactor
		}

		drugID, err := s.sink.UpsertDrug(ctx, &domain.Drug{
			Name:            name,
			Unit:            first.Unit,
			ReorderLevel:    first.ReorderLevel,
			ReorderQuantity: reorderQty,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert drug %q: %w", name, err)
		}

		opening, found, err := s.sink.LatestClosingStock(ctx, drugID)
		if err != nil {
			return nil, fmt.Errorf("latest stock for %q: %w", name, err)
		}
		if !found {
			opening = first.ReorderLevel * initialStockFactor
		}

		records := BuildLedger(drugID, opening, drugRows)
		if err := s.sink.InsertUsageRecords(ctx, records); err != nil {
			return nil, fmt.Errorf("insert records for %q: %w", name, err)
		}

		report.DrugsSeen++
		report.RecordsWritten += len(records)
	}

	return report, nil
}
