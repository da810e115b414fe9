package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeList accepts either the wrapped envelope {"<key>": [...]} or a bare
// JSON array. A missing key or null yields an empty list.
func decodeList[T any](data []byte, key string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}

	if data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", key, err)
		}
		if list == nil {
			list = []T{}
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", key, err)
	}

	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return []T{}, nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// decodeMessage extracts a human-readable message from an error body.
func decodeMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
