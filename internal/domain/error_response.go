package domain

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a human readable message and the HTTP status.
type ErrorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
