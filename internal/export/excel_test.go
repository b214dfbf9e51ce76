package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
)

func TestExportToExcel(t *testing.T) {
	criteria := filtering.Criteria{City: "Pune", Gender: filtering.Values{"Female"}}
	pool := []*candidate.Candidate{
		{UID: "m", FullName: "Manoj", City: "Pune", Gender: "Male"},
		{UID: "f", FullName: "Fatima", City: "Pune", Gender: "Female", Favourite: true, Languages: []string{"Urdu", "English"}},
	}
	result := filtering.New(&filtering.Config{Retention: filtering.RetainSoftRequired}, nil).Apply(pool, criteria)

	path, err := ExportToExcel(result, criteria, filepath.Join(t.TempDir(), "ranked"))
	if err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}
	if filepath.Ext(path) != ".xlsx" {
		t.Fatalf("expected .xlsx extension, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(candidatesSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	first := rows[1]
	if first[0] != "1" || first[1] != "f" || first[2] != "Fatima" || first[7] != "Urdu, English" || first[8] != "100" {
		t.Fatalf("unexpected first row %q", first)
	}
	if first[9] != "city, gender" || first[10] != "favourite" {
		t.Fatalf("unexpected match columns %q", first)
	}
	if rows[2][1] != "m" || rows[2][8] != "40" {
		t.Fatalf("unexpected second row %q", rows[2])
	}

	filters, err := f.GetRows(filtersSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if filters[1][0] != "city" || filters[1][1] != "TRUE" || filters[1][2] != "Pune" {
		t.Fatalf("unexpected city row %q", filters[1])
	}
	if filters[2][0] != "gender" || filters[2][1] != "FALSE" || filters[2][2] != "Female" {
		t.Fatalf("unexpected gender row %q", filters[2])
	}
}

func TestExportToExcelKeepsExtension(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.XLSX")

	path, err := ExportToExcel(nil, filtering.Criteria{}, out)
	if err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}
	if path != out {
		t.Fatalf("expected %s, got %s", out, path)
	}
}
