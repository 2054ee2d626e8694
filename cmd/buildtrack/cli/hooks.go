// hooks.go contains the hook input types and parsers. Hook payloads arrive as
// a single JSON object on stdin; unrecognized fields are ignored.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// defaultSessionID is used when the payload carries no session_id.
const defaultSessionID = "default"

// PostToolUseInput represents the JSON input from the PostToolUse hook.
type PostToolUseInput struct {
	SessionID string `json:"session_id"`
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		FilePath string `json:"file_path"`
	} `json:"tool_input"`
}

// UserPromptInput represents the JSON input from the UserPromptSubmit hook.
type UserPromptInput struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// parsePostToolUseInput parses PostToolUse hook input from reader.
func parsePostToolUseInput(r io.Reader) (*PostToolUseInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if len(data) == 0 {
		return nil, errors.New("empty input")
	}

	var input PostToolUseInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if input.SessionID == "" {
		input.SessionID = defaultSessionID
	}

	return &input, nil
}

// parseUserPromptInput parses UserPromptSubmit hook input from reader.
func parseUserPromptInput(r io.Reader) (*UserPromptInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if len(data) == 0 {
		return nil, errors.New("empty input")
	}

	var input UserPromptInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if input.SessionID == "" {
		input.SessionID = defaultSessionID
	}

	return &input, nil
}
