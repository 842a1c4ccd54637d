package fileutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oarkflow/remit/pkg/contracts"
)

// NewAppender builds an appender for the given output path, choosing the
// format from the file extension.
func NewAppender[T Record](file string, appendMode bool) (contracts.Appender[T], error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return NewJSONAppender[T](file, appendMode)
	case ".csv":
		return NewCSVAppender[T](file, appendMode)
	default:
		return nil, fmt.Errorf("unsupported output extension in %s", file)
	}
}
