package main

import (
	"log"
	"os"

	"food_routes/internal/config"
	"food_routes/internal/logger"
	"food_routes/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Setup Gin router
	r := routes.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server running at :%s", port)
	log.Fatal(r.Run("0.0.0.0:" + port))
}
