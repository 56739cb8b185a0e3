package gemini

import "encoding/json"

// generateRequest represents a streamGenerateContent request.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateChunk represents one streamed GenerateContentResponse.
type generateChunk struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`

	Error json.RawMessage `json:"error"`
}
