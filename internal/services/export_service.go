package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService renders the order-list result set as a downloadable file.
type ExportService struct {
	RequestID string
}

// OrderReport is the input of an export: the rows currently shown and their context.
type OrderReport struct {
	Restaurant string
	MinDate    string
	MaxDate    string
	Orders     []models.Order
}

var exportColumns = []string{
	"ID", "Full name", "Phone", "Date", "Order type", "Guests",
	"Price", "Discount", "Total payment", "Status", "Offsite", "Note", "Comment",
}

const xlsxSheet = "Orders"

// exportRecord is one spreadsheet row; numbers stay numbers.
func exportRecord(o models.Order) []any {
	var phone any = ""
	if o.PhoneNumber != 0 {
		phone = o.PhoneNumber
	}
	offsite := "No"
	if o.Offsite {
		offsite = "Yes"
	}
	return []any{
		o.ID,
		o.FullName,
		phone,
		utils.FormatLongDate(o.Date),
		o.OrderTypeName,
		o.ChairCount,
		o.Price,
		o.Discount,
		o.TotalPayment,
		StatusLabel(o.Status),
		offsite,
		o.Note,
		o.Comment,
	}
}

func (s ExportService) OrdersXLSX(r OrderReport) ([]byte, string, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			utils.L().Warn("close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, "", err
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &exportColumns); err != nil {
		return nil, "", err
	}
	for i, o := range r.Orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		row := exportRecord(o)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E6E6E6"}},
	})
	if err != nil {
		return nil, "", err
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, header); err != nil {
		return nil, "", err
	}
	lastCol, err := excelize.ColumnNumberToName(len(exportColumns))
	if err != nil {
		return nil, "", err
	}
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 18); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "orders_xlsx", fmt.Sprintf("rows=%d", len(r.Orders)))
	return buf.Bytes(), exportFilename(r, "xlsx"), nil
}

func (s ExportService) OrdersCSV(r OrderReport) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, "", err
	}
	for _, o := range r.Orders {
		if err := w.Write(exportRow(o)); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "orders_csv", fmt.Sprintf("rows=%d", len(r.Orders)))
	return buf.Bytes(), exportFilename(r, "csv"), nil
}

func exportRow(o models.Order) []string {
	rec := exportRecord(o)
	out := make([]string, len(rec))
	for i, v := range rec {
		switch t := v.(type) {
		case int64:
			out[i] = strconv.FormatInt(t, 10)
		case int:
			out[i] = strconv.Itoa(t)
		case float64:
			out[i] = utils.FormatDecimal(t)
		case string:
			out[i] = t
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}

type pdfColumn struct {
	title string
	width float64
	align string
	value func(models.Order) string
}

var pdfColumns = []pdfColumn{
	{"ID", 14, "R", func(o models.Order) string { return strconv.FormatInt(o.ID, 10) }},
	{"Full name", 48, "L", func(o models.Order) string { return o.FullName }},
	{"Phone", 28, "L", func(o models.Order) string {
		if o.PhoneNumber == 0 {
			return "-"
		}
		return strconv.FormatInt(o.PhoneNumber, 10)
	}},
	{"Date", 32, "L", func(o models.Order) string { return utils.FormatLongDate(o.Date) }},
	{"Type", 34, "L", func(o models.Order) string { return o.OrderTypeName }},
	{"Guests", 16, "R", func(o models.Order) string { return strconv.Itoa(o.ChairCount) }},
	{"Price", 30, "R", func(o models.Order) string { return utils.FormatPrice(o.Price) }},
	{"Total", 30, "R", func(o models.Order) string { return utils.FormatPrice(o.TotalPayment) }},
	{"Status", 24, "L", func(o models.Order) string { return StatusLabel(o.Status) }},
	{"Offsite", 16, "C", func(o models.Order) string {
		if o.Offsite {
			return "Yes"
		}
		return "No"
	}},
}

func (s ExportService) OrdersPDF(r OrderReport) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Orders", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, tr("Orders - "+utils.Safe(r.Restaurant, "-")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period    : %s - %s", utils.Safe(r.MinDate, "-"), utils.Safe(r.MaxDate, "-")))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated : "+utils.FormatDateTime(utils.NowFunc()))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	var total float64
	guests := 0
	for _, o := range r.Orders {
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, tr(clip(c.value(o), c.width)), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
		total += o.TotalPayment
		guests += o.ChairCount
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Orders: %d   Guests: %d   Total: %s", len(r.Orders), guests, utils.FormatPrice(total)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "orders_pdf", fmt.Sprintf("rows=%d", len(r.Orders)))
	return buf.Bytes(), exportFilename(r, "pdf"), nil
}

// clip shortens text to roughly fit a column of the given width at 9pt.
func clip(s string, width float64) string {
	limit := int(width / 1.9)
	r := []rune(s)
	if len(r) <= limit || limit < 4 {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func exportFilename(r OrderReport, ext string) string {
	name := "orders"
	if part := safeFilenamePart(r.Restaurant); part != "" {
		name += "_" + part
	}
	if r.MinDate != "" || r.MaxDate != "" {
		name += "_" + safeFilenamePart(r.MinDate+"_"+r.MaxDate)
	}
	return name + "." + ext
}

func safeFilenamePart(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "_")
	if s == "" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if r := []rune(s); len(r) > 40 {
		s = string(r[:40])
	}
	return s
}

// Export formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ExportOrders renders the current order-list rows of the selected restaurant.
func (d *Dashboard) ExportOrders(ctx context.Context, format, requestID string) ([]byte, string, error) {
	ref := d.Session.SelectedRestaurant()
	if ref == nil {
		return nil, "", domain.ValidationError{Field: "restaurantId", Msg: "select a restaurant first"}
	}
	v := d.Pages().OrderList.Ensure(ctx)
	if !v.Loaded && v.LastError != "" {
		return nil, "", domain.InternalError{Msg: "orders are not available: " + v.LastError}
	}
	report := OrderReport{
		Restaurant: ref.Name,
		MinDate:    v.Filters[FilterMinDate],
		MaxDate:    v.Filters[FilterMaxDate],
		Orders:     v.Items,
	}
	svc := ExportService{RequestID: requestID}
	switch format {
	case FormatPDF:
		return svc.OrdersPDF(report)
	case FormatXLSX:
		return svc.OrdersXLSX(report)
	case FormatCSV:
		return svc.OrdersCSV(report)
	}
	return nil, "", domain.ValidationError{Field: "format", Msg: "unsupported export format " + format}
}
