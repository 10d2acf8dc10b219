package request

import (
	"errors"
	"net/http"
)

// ErrInternalServer is the message returned to the client when the handler fails unexpectedly.
var ErrInternalServer = errors.New("internal server error")

// ClientWriter is a http.ResponseWriter that remembers the status code written to it.
type ClientWriter struct {
	http.ResponseWriter

	// statusCode is the status code written to the client.
	statusCode int
}

// NewClientWriter wraps the response writer. The status code defaults to 200, as that is what is sent when the
// handler never calls WriteHeader.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (c *ClientWriter) WriteHeader(code int) {
	c.statusCode = code
	c.ResponseWriter.WriteHeader(code)
}

// StatusCode is the status code written to the client.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
