package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const exportLimit = 50000

var exportHeaders = []string{"ID", "Account", "Action", "Resource", "Resource ID", "Outcome", "IP", "User Agent", "Detail", "Created At"}

func optID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func (h *LogHandler) exportRow(l *models.AuditLog) []string {
	return []string{
		strconv.FormatUint(uint64(l.ID), 10),
		optID(l.AccountID),
		l.Action,
		l.Resource,
		optID(l.ResourceID),
		string(l.Outcome),
		l.IP,
		l.UserAgent,
		h.detail(l),
		l.CreatedAt.Format(time.RFC3339),
	}
}

func (h *LogHandler) exportLogs(c *gin.Context) ([]models.AuditLog, bool) {
	f, ok := filterFrom(c)
	if !ok {
		return nil, false
	}
	logs, err := h.Logs.All(c.Request.Context(), f, exportLimit)
	if err != nil {
		h.Log.WithError(err).Error("export audit logs")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return nil, false
	}
	return logs, true
}

// ExportCSV streams the filtered audit log as CSV.
func (h *LogHandler) ExportCSV(c *gin.Context) {
	logs, ok := h.exportLogs(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"audit_logs_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so spreadsheet tools pick the right encoding
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeaders)
	for i := range logs {
		_ = w.Write(h.exportRow(&logs[i]))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.Log.WithError(err).Warn("csv export interrupted")
	}
}

// ExportXLSX writes the filtered audit log as a spreadsheet.
func (h *LogHandler) ExportXLSX(c *gin.Context) {
	logs, ok := h.exportLogs(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Audit Log"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
		return
	}
	for i := range logs {
		row := h.exportRow(&logs[i])
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
			return
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 8)
	_ = f.SetColWidth(sheet, "C", "D", 28)
	_ = f.SetColWidth(sheet, "H", "I", 40)
	_ = f.SetColWidth(sheet, "J", "J", 22)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"audit_logs_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		h.Log.WithError(err).Warn("xlsx export interrupted")
	}
}
