package models

// SyncEnvelope is the message exchanged between paired devices. ID is optional
// and only used to drop duplicates produced by delivery retries.
type SyncEnvelope struct {
	ID string `json:"id,omitempty"`
	DataEnvelope[StoredParams]
}

// SyncAck is written back by the receiving side once an envelope is handled.
// A failed ack carrying the envelope id may be retried; one without an id
// means the envelope could not be decoded.
type SyncAck struct {
	ID string `json:"id,omitempty"`
	OK bool   `json:"ok"`
}
