package types

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// FeedbackResponse is returned by the one-shot submit endpoint.
type FeedbackResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	ListName      string   `json:"listName"`
	DroppedFields []string `json:"droppedFields,omitempty"`
}
