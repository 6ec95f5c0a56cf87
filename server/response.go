package server

type Status string

const (
	StatusOK      Status = "OK"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Response HTTP 接口统一的返回格式
type Response struct {
	Status Status   `json:"status,omitempty"`
	Value  string   `json:"value,omitempty"`
	Keys   []string `json:"keys,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func NewOKResponse() Response {
	return Response{Status: StatusOK}
}

func NewSuccessResponse() Response {
	return Response{Status: StatusSuccess}
}

func NewValueResponse(value string) Response {
	return Response{Status: StatusSuccess, Value: value}
}

func NewKeysResponse(keys []string) Response {
	return Response{Status: StatusSuccess, Keys: keys}
}

func NewErrorResponse(err string) Response {
	return Response{Status: StatusError, Error: err}
}
