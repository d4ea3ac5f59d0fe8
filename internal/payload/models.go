// Package payload defines the JSON response shapes shared by the server and
// the client mock resolver, and the generator that fills them.
package payload

// Server identity reported on the root endpoint
const (
	ServerName    = "Vue3 Swagger Verification API"
	ServerVersion = "1.0.0"
)

// Endpoints lists the data endpoints advertised by the server info payload
var Endpoints = []string{"/test", "/sample"}

// GreetingResponse is returned by GET /test
type GreetingResponse struct {
	Message string `json:"message"`
}

// SampleResponse is returned by GET /sample
type SampleResponse struct {
	Value   int    `json:"value"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServerInfo is returned by GET /
type ServerInfo struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Timestamp string   `json:"timestamp"`
}
