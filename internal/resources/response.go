package resources

// Status is the transport-level outcome of an operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Body is the API envelope carried by every response.
type Body[D any] struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
	Data   D      `json:"data"`
}

// Response is the normalized result of a REST operation. Failures are
// data: the cache only branches on Succeeded and hands the value back to
// the caller, who reads Body.Reason for display.
type Response[D any] struct {
	Status       Status
	Code         int
	ErrorTitle   string
	ErrorMessage string
	Body         Body[D]
}

// Succeeded reports whether the call reached the API and the API accepted it.
func (r Response[D]) Succeeded() bool {
	return r.Status == StatusSuccess && r.Body.OK
}

// Success builds an accepted response carrying data.
func Success[D any](data D) Response[D] {
	return Response[D]{Status: StatusSuccess, Code: 200, Body: Body[D]{OK: true, Data: data}}
}

// Rejected builds a response that reached the API but was refused with reason.
func Rejected[D any](reason string) Response[D] {
	return Response[D]{Status: StatusSuccess, Code: 200, Body: Body[D]{OK: false, Reason: reason}}
}

// Failed builds a transport-level failure.
func Failed[D any](code int, title, message string) Response[D] {
	return Response[D]{
		Status:       StatusError,
		Code:         code,
		ErrorTitle:   title,
		ErrorMessage: message,
		Body:         Body[D]{OK: false, Reason: message},
	}
}
