package apimodels

// ErrorResponse is the body of every non-2xx answer; the embedding client reads detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func NewError(detail string) ErrorResponse {
	return ErrorResponse{
		Detail: detail,
	}
}

type StatusResponse struct {
	Status string `json:"status"`
}

func NewStatus(status string) StatusResponse {
	return StatusResponse{
		Status: status,
	}
}
