package model

import "time"

// DatasetSource tells how a dataset's bins were produced
type DatasetSource string

const (
	// DatasetSourceRaw datasets were binarized from numeric columns by the service
	DatasetSourceRaw DatasetSource = "raw"
	// DatasetSourceBinary datasets were uploaded as 0/1 columns with a bin to feature map
	DatasetSourceBinary DatasetSource = "binary"
)

// DatasetInfo describes a registered dataset without its bins
type DatasetInfo struct {
	Name          string        `json:"name"`
	Source        DatasetSource `json:"source"`
	SampleCount   int           `json:"sample_count"`
	FeatureCount  int           `json:"feature_count"`
	BinCount      int           `json:"bin_count"`
	LabelBinCount int           `json:"label_bin_count"`
	FeatureSizes  []int         `json:"feature_sizes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
