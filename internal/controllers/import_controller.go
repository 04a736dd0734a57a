package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food_routes/internal/config"
	"food_routes/internal/services"
)

// importer is package state so tests and main can swap the geocoder.
var importer = services.NewImporter(services.NewGoogleGeocoder())

// SetImporter replaces the package importer, e.g. with a stubbed geocoder.
func SetImporter(imp *services.Importer) {
	importer = imp
}

// readCSVBody accepts either a multipart "file" field or a raw text body.
func readCSVBody(c *gin.Context) (string, bool) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
			return "", false
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
			return "", false
		}
		return string(data), true
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV content is required"})
		return "", false
	}
	return string(data), true
}

// ImportRoutes ingests an uploaded route sheet. Validation failures reject
// the whole file; a group-level persistence failure only skips that route.
func ImportRoutes(c *gin.Context) {
	csvContent, ok := readCSVBody(c)
	if !ok {
		return
	}

	result := importer.ImportCSV(c.Request.Context(), config.DB, csvContent)

	logrus.WithFields(logrus.Fields{
		"batch_id": result.BatchID,
		"imported": result.Imported,
		"errors":   len(result.Errors),
	}).Info("ImportRoutes: import finished")

	status := http.StatusOK
	if !result.Success && result.Imported == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// ValidateImport dry-runs the upload checks without writing anything.
func ValidateImport(c *gin.Context) {
	csvContent, ok := readCSVBody(c)
	if !ok {
		return
	}

	errs := services.ValidateCSV(csvContent)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}
