package routes

import (
	"github.com/gin-gonic/gin"

	"food_routes/internal/controllers"
	"food_routes/internal/middleware"
)

func DriverRoutes(r *gin.Engine) {
	driver := r.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole("driver"))
	{
		driver.GET("/route", controllers.GetMyRoute)
		driver.GET("/stats", controllers.GetMyStats)
		driver.GET("/delivery/:addressId", controllers.GetDelivery)
		driver.PUT("/delivery/:addressId", controllers.CompleteDelivery)
		driver.GET("/directions", controllers.GetDirections)
	}
}
