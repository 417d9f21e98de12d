package http

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"aquarium-cloud/internal/observability/metrics"
	watertests "aquarium-cloud/internal/watertests/domain"
)

// ExportHandler serves water test history exports in csv, xlsx and pdf.
type ExportHandler struct {
	repo watertests.Repository
}

// NewExportHandler constructs an export handler.
func NewExportHandler(repo watertests.Repository) (*ExportHandler, error) {
	if repo == nil {
		return nil, errors.New("water tests export: nil repository")
	}
	return &ExportHandler{repo: repo}, nil
}

// ServeHTTP handles GET /api/v1/exports/watertests.{csv,xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	format := formatFromPath(r.URL.Path)
	if format == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	from, to, err := rangeFromQuery(r)
	if err != nil {
		metrics.IncExport(format, "error")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tests, err := h.repo.ListRange(r.Context(), from, to)
	if err != nil {
		metrics.IncExport(format, "error")
		http.Error(w, "query water tests error", http.StatusInternalServerError)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="watertests.csv"`)
		writeCSV(w, tests)
	case "xlsx":
		data, err := buildXLSX(tests)
		if err != nil {
			metrics.IncExport(format, "error")
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="watertests.xlsx"`)
		_, _ = w.Write(data)
	case "pdf":
		data, err := buildPDF(tests, from, to)
		if err != nil {
			metrics.IncExport(format, "error")
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="watertests.pdf"`)
		_, _ = w.Write(data)
	}
	metrics.IncExport(format, "success")
}

func formatFromPath(path string) string {
	switch path {
	case "/api/v1/exports/watertests.csv":
		return "csv"
	case "/api/v1/exports/watertests.xlsx":
		return "xlsx"
	case "/api/v1/exports/watertests.pdf":
		return "pdf"
	}
	return ""
}

var exportColumns = []string{"taken_at", "ph", "ammonia", "nitrite", "nitrate", "kh", "gh", "phosphate", "salinity", "notes"}

func testRow(test watertests.WaterTest) []string {
	return []string{
		test.TakenAt.UTC().Format(time.RFC3339),
		formatMeasurement(test.PH),
		formatMeasurement(test.Ammonia),
		formatMeasurement(test.Nitrite),
		formatMeasurement(test.Nitrate),
		formatMeasurement(test.KH),
		formatMeasurement(test.GH),
		formatMeasurement(test.Phosphate),
		formatMeasurement(test.Salinity),
		test.Notes,
	}
}

func formatMeasurement(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func writeCSV(w http.ResponseWriter, tests []watertests.WaterTest) {
	writer := csv.NewWriter(w)
	_ = writer.Write(exportColumns)
	for _, test := range tests {
		_ = writer.Write(testRow(test))
	}
	writer.Flush()
}

func buildXLSX(tests []watertests.WaterTest) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "water_tests"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, col)
	}
	for rowIdx, test := range tests {
		for colIdx, value := range testRow(test) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildPDF(tests []watertests.WaterTest, from, to time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Water Test History")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("From: %s", from.UTC().Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("To: %s", to.UTC().Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tests: %d", len(tests)))
	pdf.Ln(8)

	widths := []float64{42, 18, 22, 18, 18, 16, 16, 24, 20, 58}
	pdf.SetFont("Arial", "B", 9)
	for i, col := range exportColumns {
		pdf.CellFormat(widths[i], 6, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, test := range tests {
		for i, value := range testRow(test) {
			align := "R"
			if i == 0 || i == len(exportColumns)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
