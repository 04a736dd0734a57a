package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food_routes/internal/config"
	"food_routes/internal/services"
)

// GetReportStats returns the overall dashboard totals. Completed-route
// figures come from the archive table, never from live routes.
func GetReportStats(c *gin.Context) {
	stats, err := services.ComputeOverallStats(config.DB)
	if err != nil {
		logrus.WithError(err).Error("GetReportStats: computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch report stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetDriverReport lists all drivers with completed-route counts and
// estimated volunteer hours.
func GetDriverReport(c *gin.Context) {
	rows, err := services.ComputeDriverReport(config.DB)
	if err != nil {
		logrus.WithError(err).Error("GetDriverReport: computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch drivers report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetAddressReport lists all pickup locations with delivery statistics.
func GetAddressReport(c *gin.Context) {
	rows, err := services.ComputeAddressReport(config.DB)
	if err != nil {
		logrus.WithError(err).Error("GetAddressReport: computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetCompletedRoutes lists the archived route history.
func GetCompletedRoutes(c *gin.Context) {
	rows, err := services.ListCompletedRoutes(config.DB)
	if err != nil {
		logrus.WithError(err).Error("GetCompletedRoutes: listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch completed routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetDailyReport streams the per-day cross-route CSV report built from
// archive snapshots.
func GetDailyReport(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date parameter is required (format: YYYY-MM-DD)"})
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	content, err := services.DailyReportCSV(config.DB, date)
	if err != nil {
		logrus.WithError(err).Error("GetDailyReport: report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate daily report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="daily_route_report_`+dateStr+`.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(content))
}

// ExportAll streams the full-data CSV export.
func ExportAll(c *gin.Context) {
	content, err := services.ExportAllCSV(config.DB)
	if err != nil {
		logrus.WithError(err).Error("ExportAll: export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export data"})
		return
	}

	filename := "full_report_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(content))
}
