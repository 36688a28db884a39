package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/go-cmicot/internal/analytics"
	"github.com/gcbaptista/go-cmicot/services"
)

// API holds dependencies for API handlers, primarily the selection service.
type API struct {
	service   services.SelectionService
	analytics *analytics.Service
}

// NewAPI creates a new API handler structure.
func NewAPI(service services.SelectionService) *API {
	return &API{
		service:   service,
		analytics: analytics.NewService(service),
	}
}

// SetupRoutes defines all the API routes of the selection service.
func SetupRoutes(router *gin.Engine, service services.SelectionService) {
	apiHandler := NewAPI(service)

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/settings", apiHandler.GetSettingsHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(service.MetricsGatherer(), promhttp.HandlerOpts{})))
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)                         // List jobs, optionally by dataset and status
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)            // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)                    // Get job status by ID
		jobRoutes.GET("/:jobId/result", apiHandler.GetSelectionResultHandler) // Get the features a selection job picked
		jobRoutes.POST("/:jobId/_cancel", apiHandler.CancelJobHandler)        // Stop a pending or running job
	}

	// Dataset management routes
	datasetRoutes := router.Group("/datasets")
	{
		datasetRoutes.POST("", apiHandler.CreateDatasetHandler)                       // Upload a raw or binary pool
		datasetRoutes.GET("", apiHandler.ListDatasetsHandler)                         // List all datasets
		datasetRoutes.GET("/:datasetName", apiHandler.GetDatasetHandler)              // Get dataset details
		datasetRoutes.DELETE("/:datasetName", apiHandler.DeleteDatasetHandler)        // Delete a dataset and its results
		datasetRoutes.GET("/:datasetName/_export", apiHandler.ExportDatasetHandler)   // Download the binarized pool or its maps
		datasetRoutes.GET("/:datasetName/jobs", apiHandler.ListDatasetJobsHandler)    // List jobs for a dataset
		datasetRoutes.GET("/:datasetName/results", apiHandler.ListResultsHandler)     // List finished selections
		datasetRoutes.POST("/:datasetName/_select", apiHandler.StartSelectionHandler) // Start a greedy selection job
		datasetRoutes.POST("/:datasetName/_score", apiHandler.ScoreFeatureHandler)    // Score one feature
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-cmicot",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// GetAnalyticsHandler returns the dataset and selection dashboard
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	dashboard, err := api.analytics.GetDashboardData()
	if err != nil {
		SendInternalError(c, "retrieve analytics data", err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetSettingsHandler returns the selection settings applied to requests that leave fields unset
func (api *API) GetSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.service.SelectionSettings())
}
