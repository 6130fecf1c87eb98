package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAIError is the error payload shape returned by the OpenAI API.
type OpenAIError struct {
    Error struct {
        Message string `json:"message"`
        Type    string `json:"type"`
        Code    string `json:"code"`
    } `json:"error"`
}

type OpenAIHttpError struct {
    StatusCode int
    Message    string
    ErrorType  string
    RawBody    string
}

func (e *OpenAIHttpError) Error() string {
    return fmt.Sprintf("OpenAI API error (HTTP %d): %s (Type: %s)", e.StatusCode, e.Message, e.ErrorType)
}

// extractOpenAIErrorDetails reads a non-2xx response body and, when it
// matches the OpenAI error format, returns the parsed details alongside the
// raw body.
func extractOpenAIErrorDetails(resp *http.Response) (string, *OpenAIError) {
    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return "", nil
    }

    var openAIErr OpenAIError
    if err := json.Unmarshal(body, &openAIErr); err == nil && openAIErr.Error.Message != "" {
        return string(body), &openAIErr
    }

    return string(body), nil
}