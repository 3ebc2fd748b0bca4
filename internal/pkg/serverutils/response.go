package serverutils

type SuccessResponseBody struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponseBody struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(message string, data interface{}) *SuccessResponseBody {
	return &SuccessResponseBody{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string, details interface{}) *ErrorResponseBody {
	return &ErrorResponseBody{
		Success: false,
		Code:    code,
		Message: message,
		Details: details,
	}
}
