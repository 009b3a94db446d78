package handlers

import (
	"net/http"

	"dashboard/internal/http/middleware"
	"dashboard/internal/services"

	"github.com/gin-gonic/gin"
)

// GetGroupedOrders returns the orders page grouped by day.
func GetGroupedOrders(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Dashboard(c).GroupedOrders(c.Request.Context()))
}

func ExportOrdersPDF(c *gin.Context) {
	exportOrders(c, services.FormatPDF, "application/pdf", "inline")
}

// ExportOrdersXLSX downloads the order list as a spreadsheet.
func ExportOrdersXLSX(c *gin.Context) {
	exportOrders(c, services.FormatXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "attachment")
}

func ExportOrdersCSV(c *gin.Context) {
	exportOrders(c, services.FormatCSV, "text/csv; charset=utf-8", "attachment")
}

func exportOrders(c *gin.Context, format, contentType, disposition string) {
	data, filename, err := middleware.Dashboard(c).ExportOrders(c.Request.Context(), format, middleware.GetRequestID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", disposition+`; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
