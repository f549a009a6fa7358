package common

import "fmt"

var (
	ErrNoDataError              = fmt.Errorf("no data provided")
	ErrURLRequiredError         = fmt.Errorf("url is required")
	ErrDownloadNotFinishedError = fmt.Errorf("download not finished")
	ErrFileNotFoundError        = fmt.Errorf("file not found")
)
