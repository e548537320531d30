package models

import "encoding/json"

// Envelope is the outer shape shared by all CMC Pro API responses: a status
// block plus an endpoint-specific data section. Data is kept raw so callers
// decode it into the right payload type and the archive can persist the
// untouched bytes.
type Envelope struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Status is the CMC response status block. ErrorCode zero means success even
// when the HTTP status is 200.
type Status struct {
	Timestamp    string `json:"timestamp"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	CreditCount  int    `json:"credit_count"`
}
