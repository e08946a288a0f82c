package models

// ModeRequest is the body of a mode switch.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=query predict feed"`
}

// FieldRequest is the body of a single form field edit. Value is raw and may be empty.
type FieldRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}
