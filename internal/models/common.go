package models

// DataEnvelope wraps a payload under a top-level "data" key, the shape shared by
// the price API and the cross-device sync messages.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}
