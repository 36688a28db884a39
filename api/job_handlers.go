package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.service.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists jobs. Query: dataset and status, both optional.
func (api *API) ListJobsHandler(c *gin.Context) {
	api.listJobs(c, c.Query("dataset"))
}

// ListDatasetJobsHandler lists the jobs of one dataset. Query: status, optional.
func (api *API) ListDatasetJobsHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")
	if _, err := api.service.GetDataset(datasetName); err != nil {
		SendDatasetNotFoundError(c, datasetName)
		return
	}
	api.listJobs(c, datasetName)
}

func (api *API) listJobs(c *gin.Context, datasetName string) {
	statusFilter, result := ValidateJobStatus(c.Query("status"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobs := api.service.ListJobs(datasetName, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":         jobs,
		"dataset_name": datasetName,
		"total":        len(jobs),
	})
}

// GetSelectionResultHandler returns the features picked by a completed selection job
func (api *API) GetSelectionResultHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	result, err := api.service.GetSelectionResult(jobID)
	switch {
	case errors.Is(err, internalErrors.ErrInvalidInput):
		SendError(c, http.StatusConflict, ErrorCodeJobNotCompleted, err.Error())
		return
	case err != nil:
		SendServiceError(c, "get selection result", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResultsHandler lists the results of the selections finished on a dataset, oldest first
func (api *API) ListResultsHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")
	if _, err := api.service.GetDataset(datasetName); err != nil {
		SendDatasetNotFoundError(c, datasetName)
		return
	}

	results := api.service.ListSelectionResults(datasetName)
	c.JSON(http.StatusOK, gin.H{
		"results":      results,
		"dataset_name": datasetName,
		"total":        len(results),
	})
}

// CancelJobHandler asks a pending or running job to stop
func (api *API) CancelJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	err := api.service.CancelJob(jobID)
	switch {
	case errors.Is(err, internalErrors.ErrInvalidInput):
		SendError(c, http.StatusConflict, ErrorCodeJobFinished, err.Error())
		return
	case err != nil:
		SendServiceError(c, "cancel job", err)
		return
	}

	job, err := api.service.GetJob(jobID)
	if err != nil {
		SendServiceError(c, "cancel job", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Cancellation requested for job '" + jobID + "'",
		"job":     job,
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":          api.service.GetJobMetrics(),
		"success_rate":     api.service.GetJobSuccessRate(),
		"current_workload": api.service.GetCurrentWorkload(),
	})
}
