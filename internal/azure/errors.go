package azure

import "fmt"

// HTTPError reports a non-2xx response from the service.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("azure devops api error (%d) on %s %s: %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// FileAccessError reports a screenshot that could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read screenshot %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}
