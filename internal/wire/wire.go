// Package wire defines the message contract between the request dispatcher
// and the relay, plus the closed error taxonomy shared by every layer.
//
// Both directions are asynchronous and fire-and-forget at the transport
// level; requests and responses are correlated solely by RequestID.
package wire

import "github.com/bytedance/sonic"

// Message type discriminators.
const (
	TypeRequest  = "OPFS_RPC_REQUEST"
	TypeResponse = "OPFS_RPC_RESPONSE"
)

// Request is one command invocation addressed to a specific target.
type Request struct {
	Type      string                 `json:"type"`
	TargetID  string                 `json:"targetId"`
	Command   string                 `json:"command"`
	Params    map[string]interface{} `json:"params,omitempty"`
	RequestID string                 `json:"requestId"`
}

// Envelope wraps a response with its correlation ID.
type Envelope struct {
	Type      string    `json:"type"`
	RequestID string    `json:"requestId"`
	Response  *Response `json:"response"`
}

// Response is the outcome of one command: either OK with opaque data, or a
// taxonomy error.
type Response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// OK builds a success response.
func OK(data interface{}) *Response {
	return &Response{OK: true, Data: data}
}

// Fail builds an error response.
func Fail(err *Error) *Response {
	return &Response{OK: false, Error: err}
}

// Marshal encodes a wire message.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes a wire message.
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}
