package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Reaishma/Healthcare-informatics-solution/analytics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet = "Summary"
	stagesSheet  = "Patient Flow"
)

var stageHeader = []string{"Order", "Stage", "Status", "Current", "Capacity", "Utilization %", "Avg Wait (min)"}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err, "analytics", "export analytics")
		return
	}
	data, err := buildReport(summary)
	if err != nil {
		h.fail(w, r, err, "analytics", "export analytics")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=careflow-report-%s.xlsx", time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// buildReport renders the analytics summary as a two-sheet workbook.
func buildReport(s analytics.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Active workflows", s.Stats.ActiveWorkflows},
		{"Pending tasks", s.Stats.PendingTasks},
		{"Staff on duty", s.Stats.StaffOnDuty},
		{"Patient flow stages", s.Stats.PatientQueue},
		{"Task completion %", s.TaskCompletionRate},
		{"Workflow efficiency %", s.WorkflowEfficiency},
		{"Sprint completion %", s.SprintCompletion},
		{"Average wait (min)", s.AverageWaitTime},
		{"Patients in flow", s.PatientFlow.TotalPatients},
		{"Flow capacity", s.PatientFlow.TotalCapacity},
		{"Flow utilization %", s.PatientFlow.Utilization},
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return nil, fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(stagesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	stageRows := make([][]any, 0, len(s.Stages)+1)
	header := make([]any, len(stageHeader))
	for i, v := range stageHeader {
		header[i] = v
	}
	stageRows = append(stageRows, header)
	for _, st := range s.Stages {
		stageRows = append(stageRows, []any{st.Order, st.Name, string(st.Status), st.CurrentCount, st.Capacity, st.Utilization, st.AverageWaitTime})
	}
	if err := writeRows(f, stagesSheet, stageRows); err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(stageHeader), 1)
	if err != nil {
		return nil, fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(stagesSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style stage header: %w", err)
	}
	if err := f.SetColWidth(stagesSheet, "B", "B", 20); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
