package api

import (
	"bytes"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-cmicot/internal/pool"
	"github.com/gcbaptista/go-cmicot/model"
)

// Multipart fields of a dataset upload
const (
	formFieldName       = "name"
	formFieldPool       = "pool"
	formFieldBinaryPool = "binary_pool"
	formFieldBinMap     = "bin_map"
)

// CreateDatasetHandler registers a dataset from a multipart upload.
// Form: name, and either pool (raw columns, label first) or binary_pool with bin_map.
func (api *API) CreateDatasetHandler(c *gin.Context) {
	files := make(map[string]multipart.File)
	defer func() {
		for field, f := range files {
			if err := f.Close(); err != nil {
				log.Printf("Warning: failed to close uploaded %s: %v", field, err)
			}
		}
	}()

	for _, field := range []string{formFieldPool, formFieldBinaryPool, formFieldBinMap} {
		f, err := openFormFile(c, field)
		if err != nil {
			sendUploadError(c, err)
			return
		}
		if f != nil {
			files[field] = f
		}
	}

	name := c.PostForm(formFieldName)
	parts := UploadParts{
		Pool:       files[formFieldPool] != nil,
		BinaryPool: files[formFieldBinaryPool] != nil,
		BinMap:     files[formFieldBinMap] != nil,
	}
	if result := ValidateDatasetUpload(name, parts); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var info model.DatasetInfo
	var err error
	if parts.Pool {
		info, err = api.service.CreateDatasetFromRawPool(name, files[formFieldPool])
	} else {
		info, err = api.service.CreateDatasetFromBinaryPool(name, files[formFieldBinaryPool], files[formFieldBinMap])
	}
	if err != nil {
		SendServiceError(c, "create dataset", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Dataset '" + name + "' created successfully",
		"dataset": info,
	})
}

// ListDatasetsHandler lists every registered dataset
func (api *API) ListDatasetsHandler(c *gin.Context) {
	datasets := api.service.ListDatasets()
	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"total":    len(datasets),
	})
}

// GetDatasetHandler returns the description of one dataset
func (api *API) GetDatasetHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")

	info, err := api.service.GetDataset(datasetName)
	if err != nil {
		SendServiceError(c, "get dataset", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteDatasetHandler removes a dataset together with its selection results
func (api *API) DeleteDatasetHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")

	if err := api.service.DeleteDataset(datasetName); err != nil {
		SendServiceError(c, "delete dataset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dataset '" + datasetName + "' deleted successfully"})
}

// ExportDatasetHandler streams the binarized pool, the bin to feature map or the feature sizes.
// Query: format (default pool).
func (api *API) ExportDatasetHandler(c *gin.Context) {
	datasetName := c.Param("datasetName")

	format, result := ValidateExportFormat(c.DefaultQuery("format", string(pool.FormatPool)))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var buf bytes.Buffer
	if err := api.service.ExportDataset(datasetName, format, &buf); err != nil {
		SendServiceError(c, "export dataset", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+datasetName+"."+string(format)+".tsv\"")
	c.Data(http.StatusOK, "text/tab-separated-values; charset=utf-8", buf.Bytes())
}

// openFormFile returns nil without error when the field is absent
func openFormFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return header.Open()
}

func sendUploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge, "Upload is too large: "+err.Error())
		return
	}
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid multipart upload: "+err.Error())
}
