package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sales-platform/internal/models"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

type captureRepo struct {
	stubRepo
	batches [][]*models.SalesRow
}

func (c *captureRepo) InsertSalesBatch(ctx context.Context, rows []*models.SalesRow) error {
	batch := make([]*models.SalesRow, len(rows))
	copy(batch, rows)
	c.batches = append(c.batches, batch)
	return nil
}

func (c *captureRepo) allRows() []*models.SalesRow {
	var rows []*models.SalesRow
	for _, b := range c.batches {
		rows = append(rows, b...)
	}
	return rows
}

func newIngestionFixture(t *testing.T, repo *captureRepo, namespace string) *IngestionService {
	t.Helper()

	logger := logging.NewStructuredLogger("test", "test", logging.FatalLevel)
	return NewIngestionService(repo, logger, metrics.NewCollector(namespace))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write CSV fixture: %v", err)
	}
	return path
}

func TestIngestFile(t *testing.T) {
	path := writeCSV(t, `TA_YMD,DONG,HOUR,DAY,AMT,CNT,UNIT,TEMP,RAIN
20240115,수원시 팔달구 행궁동,1,1,120000,15,원,3.5,0.0
20240115,행궁동,2,1,95000,12,원,3.5,0.0
2024-01-15,매교동,3,1,80000,,원,,
`)

	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_basic")

	result, err := svc.IngestFile(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", result.TotalRecords)
	}
	if result.SuccessfulRecords != 3 {
		t.Errorf("SuccessfulRecords = %d, want 3", result.SuccessfulRecords)
	}

	rows := repo.allRows()
	if len(rows) != 3 {
		t.Fatalf("inserted %d rows, want 3", len(rows))
	}

	// District names are normalized at write time.
	if rows[0].Dong != "행궁동" {
		t.Errorf("rows[0].Dong = %v, want 행궁동", rows[0].Dong)
	}

	// Dashed dates are canonicalized to 8 digits.
	if rows[2].TaYmd != "20240115" {
		t.Errorf("rows[2].TaYmd = %v, want 20240115", rows[2].TaYmd)
	}

	// Empty numeric cells stay NULL, not zero.
	if rows[2].Count != nil {
		t.Error("rows[2].Count should be nil for an empty cell")
	}
	if rows[2].Temp != nil {
		t.Error("rows[2].Temp should be nil for an empty cell")
	}
	if rows[0].Amount == nil || *rows[0].Amount != 120000 {
		t.Errorf("rows[0].Amount = %v, want 120000", rows[0].Amount)
	}
}

func TestIngestFileBOMHeader(t *testing.T) {
	// Excel exports prefix the first header cell with a UTF-8 BOM.
	path := writeCSV(t, "\ufeffTA_YMD,DONG,HOUR,AMT\n20240115,행궁동,1,120000\n")

	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_bom")

	result, err := svc.IngestFile(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.SuccessfulRecords != 1 {
		t.Errorf("SuccessfulRecords = %d, want 1", result.SuccessfulRecords)
	}
	rows := repo.allRows()
	if len(rows) != 1 || rows[0].TaYmd != "20240115" {
		t.Fatalf("TA_YMD column not recognized through the BOM, rows = %v", rows)
	}
}

func TestIngestFileSkipsBadRows(t *testing.T) {
	path := writeCSV(t, `TA_YMD,DONG,HOUR,DAY,AMT,CNT,UNIT,TEMP,RAIN
20240115,행궁동,1,1,120000,15,원,3.5,0.0
baddate,행궁동,2,1,1,1,원,,
20240115,,3,1,1,1,원,,
20240115,행궁동,11,1,1,1,원,,
20240115,행궁동,0,1,1,1,원,,
`)

	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_badrows")

	result, err := svc.IngestFile(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.SuccessfulRecords != 1 {
		t.Errorf("SuccessfulRecords = %d, want 1", result.SuccessfulRecords)
	}
	if result.FailedRecords != 4 {
		t.Errorf("FailedRecords = %d, want 4", result.FailedRecords)
	}
}

func TestIngestFileBatching(t *testing.T) {
	csv := "TA_YMD,DONG,HOUR\n"
	for i := 0; i < 5; i++ {
		csv += "20240115,행궁동," + string(rune('1'+i)) + "\n"
	}
	path := writeCSV(t, csv)

	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_batching")

	result, err := svc.IngestFile(context.Background(), path, 2)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.SuccessfulRecords != 5 {
		t.Errorf("SuccessfulRecords = %d, want 5", result.SuccessfulRecords)
	}
	// Batch size 2 over 5 rows gives batches of 2, 2, and 1.
	if len(repo.batches) != 3 {
		t.Errorf("got %d batches, want 3", len(repo.batches))
	}
}

func TestIngestFileMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, "TA_YMD,HOUR\n20240115,1\n")

	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_nocol")

	if _, err := svc.IngestFile(context.Background(), path, 100); err == nil {
		t.Error("IngestFile() expected an error for a missing DONG column")
	}
}

func TestIngestFileMissingFile(t *testing.T) {
	repo := &captureRepo{}
	svc := newIngestionFixture(t, repo, "ingest_nofile")

	if _, err := svc.IngestFile(context.Background(), t.TempDir()+"/absent.csv", 100); err == nil {
		t.Error("IngestFile() expected an error for a missing file")
	}
}
