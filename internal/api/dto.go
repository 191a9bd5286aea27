package api

import (
	"encoding/json"
	"time"
)

// SetItemRequest is the request body for storing a value.
type SetItemRequest struct {
	AuthKey   string          `json:"auth_key" example:"sticky-api-startpoint" validate:"required"`
	DataKey   string          `json:"data_key" example:"sticky-notes" validate:"required"`
	DataValue json.RawMessage `json:"data_value" validate:"required"`
}

// ItemResponse is one entry of a list response.
type ItemResponse struct {
	DataKey   string          `json:"data_key" example:"sticky-notes" validate:"required"`
	DataValue json.RawMessage `json:"data_value" validate:"required"`
	Checksum  string          `json:"checksum" example:"abc123..."`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

// SetItemResponse is returned after a successful write.
type SetItemResponse struct {
	Message  string `json:"message" example:"ok" validate:"required"`
	Checksum string `json:"checksum" example:"abc123..." validate:"required"`
}

// DeleteAllResponse reports how many items were removed.
type DeleteAllResponse struct {
	Deleted int `json:"deleted" example:"3" validate:"required"`
}
