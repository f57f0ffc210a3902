package global

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type APIResponse struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

// ListState tells the view which of the list renderings applies.
type ListState string

const (
	ListPopulated ListState = "populated"
	ListEmpty     ListState = "empty"
)

type ListPayload struct {
	State ListState   `json:"state"`
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

func SuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

func NewListPayload[T any](items []T) ListPayload {
	state := ListPopulated
	if len(items) == 0 {
		state = ListEmpty
		items = []T{}
	}
	return ListPayload{State: state, Items: items, Count: len(items)}
}

// ListResponse wraps a collection so an empty result is distinguishable from a populated one.
func ListResponse[T any](items []T) APIResponse {
	return SuccessResponse(NewListPayload(items))
}

func ErrorResponse(message string, errors []ValidationError) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// RetryableErrorResponse marks a failed read the view may offer to retry.
func RetryableErrorResponse(message string) APIResponse {
	resp := ErrorResponse(message, nil)
	resp.Retryable = true
	return resp
}
