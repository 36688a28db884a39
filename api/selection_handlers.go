package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-cmicot/model"
)

// StartSelectionHandler starts a greedy selection job on a dataset.
// Request Body: model.SelectionRequest, optional.
func (api *API) StartSelectionHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")

	var req model.SelectionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			SendInvalidJSONError(c, err)
			return
		}
	}
	if result := ValidateSelectionRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobID, err := api.service.StartSelection(datasetName, req)
	if err != nil {
		SendServiceError(c, "start selection", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Feature selection started for dataset '" + datasetName + "'",
		"job_id":  jobID,
	})
}

// ScoreFeatureHandler scores one feature of a dataset synchronously.
// Request Body: model.ScoreRequest
func (api *API) ScoreFeatureHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")

	var req model.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateScoreRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	score, err := api.service.ScoreFeature(datasetName, req)
	if err != nil {
		SendServiceError(c, "score feature", err)
		return
	}
	c.JSON(http.StatusOK, score)
}
