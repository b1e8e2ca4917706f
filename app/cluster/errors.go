package cluster

import "errors"

var (
	// ErrInvalidClusterCount is returned when k is outside [1, n]
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrNoProgress is returned when an oversized cluster cannot be split any further
	ErrNoProgress = errors.New("recursive split made no progress")

	// ErrInvalidOptions is returned for non-positive size bounds
	ErrInvalidOptions = errors.New("invalid clusterer options")

	// ErrInvalidLabels is returned when the clustering primitive breaks its contract
	ErrInvalidLabels = errors.New("invalid labels from clustering primitive")
)
