package routes

import (
	"github.com/gin-gonic/gin"

	"food_routes/internal/controllers"
)

// ReportRoutes registers the read-only reporting endpoints under the
// already-guarded admin group.
func ReportRoutes(admin *gin.RouterGroup) {
	reports := admin.Group("/reports")
	{
		reports.GET("/stats", controllers.GetReportStats)
		reports.GET("/drivers", controllers.GetDriverReport)
		reports.GET("/addresses", controllers.GetAddressReport)
		reports.GET("/completed-routes", controllers.GetCompletedRoutes)
		reports.GET("/daily-report", controllers.GetDailyReport)
		reports.GET("/export-all", controllers.ExportAll)
	}
}
