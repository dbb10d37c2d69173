package github

import (
	"context"
	"encoding/json"
	"net/http"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

// MockRequester is a mock implementation of the Requester interface for testing
type MockRequester struct {
	// ExecuteFunc can be set to mock Execute behavior
	ExecuteFunc func(ctx context.Context, method, path string, body any) (*Response, error)

	// Call tracking
	Calls []MockCall
}

// MockCall records a request for verification
type MockCall struct {
	Method string
	Path   string
	Body   any
}

// NewMockRequester creates a new mock requester
func NewMockRequester() *MockRequester {
	return &MockRequester{
		Calls: make([]MockCall, 0),
	}
}

// Execute implements Requester.Execute
func (m *MockRequester) Execute(ctx context.Context, method, path string, body any) (*Response, error) {
	m.Calls = append(m.Calls, MockCall{Method: method, Path: path, Body: body})
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, method, path, body)
	}
	return &Response{StatusCode: http.StatusNoContent}, nil
}

// CallsTo returns the recorded calls with the given method
func (m *MockRequester) CallsTo(method string) []MockCall {
	var calls []MockCall
	for _, c := range m.Calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// MockResponse builds a response with a JSON body, returning an HTTPError
// for non-2xx statuses the same way the engine does
func MockResponse(status int, v any) (*Response, error) {
	var body []byte
	switch b := v.(type) {
	case nil:
	case string:
		body = []byte(b)
	case []byte:
		body = b
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		body = data
	}

	resp := &Response{StatusCode: status, Header: http.Header{}, Body: body}
	if !resp.Success() {
		return resp, gherrors.NewHTTPError(status, errorMessage(body), nil)
	}
	return resp, nil
}

var _ Requester = (*MockRequester)(nil)
