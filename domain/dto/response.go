package dto

// ErrorRes is the body of every non-2xx response.
type ErrorRes struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
