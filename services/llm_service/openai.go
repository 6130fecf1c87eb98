package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type OpenAIService struct {
    httpClient *http.Client
    logger     *zap.Logger
}

func NewOpenAIService(logger *zap.Logger) *OpenAIService {
    return &OpenAIService{
        httpClient: &http.Client{Timeout: 120 * time.Second},
        logger:     logger,
    }
}

// CallLLM performs a single chat-completion call. Failures are returned to
// the caller as-is: the upload and chat flows treat them as terminal, so
// there is no retry here.
func (s *OpenAIService) CallLLM(ctx context.Context, config map[string]interface{}, prompt string) (string, error) {
    apiURL, ok := config["api_url"].(string)
    if !ok {
        return "", fmt.Errorf("api_url not found in config")
    }

    apiKey, ok := config["api_key"].(string)
    if !ok {
        return "", fmt.Errorf("api_key not found in config")
    }

    modelName, ok := config["model_name"].(string)
    if !ok {
        return "", fmt.Errorf("model_name not found in config")
    }

    messages := []map[string]string{
        {"role": "system", "content": "You are a helpful assistant."},
        {"role": "user", "content": prompt},
    }

    requestBody, err := json.Marshal(map[string]interface{}{
        "model":    modelName,
        "messages": messages,
    })
    if err != nil {
        return "", fmt.Errorf("error marshaling request body: %w", err)
    }

    req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(requestBody))
    if err != nil {
        return "", fmt.Errorf("error creating request: %w", err)
    }

    req.Header.Set("Authorization", "Bearer "+apiKey)
    req.Header.Set("Content-Type", "application/json")

    resp, err := s.httpClient.Do(req)
    if err != nil {
        return "", fmt.Errorf("error making request: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        rawBody, openAIErr := extractOpenAIErrorDetails(resp)
        httpErr := &OpenAIHttpError{
            StatusCode: resp.StatusCode,
            RawBody:    rawBody,
        }
        if openAIErr != nil {
            httpErr.Message = openAIErr.Error.Message
            httpErr.ErrorType = openAIErr.Error.Type
        }
        s.logger.Error("OpenAI API error",
            zap.Int("status_code", httpErr.StatusCode),
            zap.String("error_type", httpErr.ErrorType),
            zap.String("error_message", httpErr.Message))
        return "", httpErr
    }

    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return "", fmt.Errorf("error reading response body: %w", err)
    }

    var result map[string]interface{}
    if err := json.Unmarshal(body, &result); err != nil {
        return "", fmt.Errorf("error unmarshaling response: %w", err)
    }

    choices, ok := result["choices"].([]interface{})
    if !ok || len(choices) == 0 {
        return "", fmt.Errorf("unexpected response format from OpenAI API")
    }

    firstChoice, ok := choices[0].(map[string]interface{})
    if !ok {
        return "", fmt.Errorf("unexpected choice format in OpenAI API response")
    }

    message, ok := firstChoice["message"].(map[string]interface{})
    if !ok {
        return "", fmt.Errorf("message not found in OpenAI API response")
    }

    content, ok := message["content"].(string)
    if !ok {
        return "", fmt.Errorf("content not found in OpenAI API response")
    }

    return content, nil
}
