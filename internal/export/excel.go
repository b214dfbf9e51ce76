// Package export writes ranked candidates to spreadsheets.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/teacherlink-search/internal/filtering"
)

const (
	candidatesSheet = "Ranked Candidates"
	filtersSheet    = "Filters"
)

var candidateColumns = []string{
	"Rank", "UID", "Name", "Location", "Designation", "Experience", "Expected Salary",
	"Languages", "Score", "Matched Filters", "Markers",
}

// ExportToExcel writes every match of result in rank order plus the active filters.
// A missing .xlsx extension is appended; the final path is returned.
func ExportToExcel(result *filtering.Result, criteria filtering.Criteria, outputPath string) (string, error) {
	if result == nil {
		result = &filtering.Result{}
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", candidatesSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(filtersSheet); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}

	if err := writeCandidates(f, result, headerStyle); err != nil {
		return "", fmt.Errorf("writing ranked candidates sheet: %w", err)
	}
	if err := writeFilters(f, result, criteria, headerStyle); err != nil {
		return "", fmt.Errorf("writing filters sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("saving %s: %w", outputPath, err)
	}
	return outputPath, nil
}

func writeCandidates(f *excelize.File, result *filtering.Result, headerStyle int) error {
	if err := f.SetSheetRow(candidatesSheet, "A1", &candidateColumns); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(candidateColumns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(candidatesSheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(candidatesSheet, "B", "D", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(candidatesSheet, "E", last, 20); err != nil {
		return err
	}

	for i, m := range result.Matches {
		c := m.Candidate
		row := []any{
			i + 1,
			c.UID,
			c.Name(),
			c.Location(),
			c.Designation,
			c.FullTimeOffline,
			c.ExpectedSalary,
			strings.Join(c.Languages, ", "),
			m.RelevanceScore,
			strings.Join(m.MatchedFilters, ", "),
			markers(c.Favourite, c.Saved, c.Downloaded),
		}
		if err := f.SetSheetRow(candidatesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	return nil
}

func writeFilters(f *excelize.File, result *filtering.Result, criteria filtering.Criteria, headerStyle int) error {
	if err := f.SetSheetRow(filtersSheet, "A1", &[]string{"Filter", "Required", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(filtersSheet, "A1", "C1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(filtersSheet, "A", "A", 25); err != nil {
		return err
	}
	if err := f.SetColWidth(filtersSheet, "C", "C", 50); err != nil {
		return err
	}

	row := 2
	for _, status := range filtering.Describe(filtering.FromCriteria(criteria)) {
		cells := []any{status.Name, status.Required, status.Value()}
		if err := f.SetSheetRow(filtersSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]any{
		{"Filters applied", result.FiltersApplied},
		{"Candidates", result.Step.Initial},
		{"Dropped", result.Step.Dropped},
		{"Ranked", len(result.Matches)},
		{"Generated", time.Now().Format(time.RFC3339)},
	}
	for _, cells := range summary {
		if err := f.SetSheetRow(filtersSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		row++
	}

	return nil
}

func markers(favourite, saved, downloaded bool) string {
	out := make([]string, 0, 3)
	if favourite {
		out = append(out, "favourite")
	}
	if saved {
		out = append(out, "saved")
	}
	if downloaded {
		out = append(out, "downloaded")
	}
	return strings.Join(out, ", ")
}
