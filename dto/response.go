package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// TextResponse is returned by the text acquisition endpoint.
type TextResponse struct {
	Text   string `json:"text"`
	Method Method `json:"method"`
	DPI    int    `json:"dpi"`
}

// FieldsOrError is either the extracted record or the reason extraction
// could not run, serialized as {"error": "..."}.
type FieldsOrError struct {
	*ExtractedFields
	Error string `json:"error,omitempty"`
}

// MarksheetParseResponse is the final response of the parse endpoint
type MarksheetParseResponse struct {
	Fields FieldsOrError `json:"fields"`
	Method Method        `json:"method"`
	DPI    int           `json:"dpi"`
}
