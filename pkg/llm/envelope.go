package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ErrorDetail is the provider-reported detail of a failed request.
type ErrorDetail struct {
	Message string
	Code    string
}

// errorObject covers the nested error object shapes used by OpenAI,
// OpenRouter, Anthropic and Gemini.
type errorObject struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code"`
	Type    string          `json:"type"`
	Status  string          `json:"status"`
}

// ParseErrorEnvelope extracts the message and code from a provider error
// body. It recognizes
//
//	{"error":{"message":"...","code"|"type"|"status":"..."}}
//	{"error":"..."}
//	{"message":"..."}
//	[{"error":{...}}]
//
// and reports false when body matches none of them or carries no message.
func ParseErrorEnvelope(body []byte) (ErrorDetail, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ErrorDetail{}, false
	}

	// Gemini wraps the envelope in a single-element array.
	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
			return ErrorDetail{}, false
		}
		return ParseErrorEnvelope(items[0])
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ErrorDetail{}, false
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return ParseErrorObject(envelope.Error)
	}

	if msg := strings.TrimSpace(envelope.Message); msg != "" {
		return ErrorDetail{Message: msg}, true
	}
	return ErrorDetail{}, false
}

// ParseErrorObject decodes the value of an "error" field, which is either
// an object with a message or a bare string.
func ParseErrorObject(raw json.RawMessage) (ErrorDetail, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		text = strings.TrimSpace(text)
		return ErrorDetail{Message: text}, text != ""
	}

	var obj errorObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ErrorDetail{}, false
	}

	msg := strings.TrimSpace(obj.Message)
	if msg == "" {
		return ErrorDetail{}, false
	}

	code := ErrorCode(obj.Code)
	if code == "" {
		code = obj.Type
	}
	if code == "" {
		code = obj.Status
	}
	return ErrorDetail{Message: msg, Code: code}, true
}

// ErrorCode renders a code that may be a JSON string or number.
func ErrorCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// PayloadType returns the "type" field of a JSON payload. Event-tagged
// providers repeat the event name there, so it stands in for a missing
// event field.
func PayloadType(data string) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(data), &probe); err != nil {
		return "", err
	}
	return probe.Type, nil
}
