package framecache

import "errors"

var (
	// ErrLoadFailed wraps every error returned by the loader.
	ErrLoadFailed = errors.New("framecache: load failed")
	// ErrInvalidConfig is returned by New for unusable options.
	ErrInvalidConfig = errors.New("framecache: invalid configuration")
	// ErrInvalidIndex is returned for negative frame indices.
	ErrInvalidIndex = errors.New("framecache: invalid frame index")
	// ErrClosed is returned by Get after Close.
	ErrClosed = errors.New("framecache: cache closed")
)
