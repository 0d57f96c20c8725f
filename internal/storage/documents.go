package storage

import (
	"encoding/json"
	"errors"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
)

const (
	noDataFound = "No data found"
	readFailed  = "Failed to read the stored data"
)

// GetStoredParams never fails: a missing or unreadable document is reported
// through the Error field and a nil BitcoinParams.
func GetStoredParams(store Store) models.StoredParams {
	var doc models.StoredParams
	if msg := getDocument(store, ParamsKey, &doc); msg != "" {
		return models.StoredParams{Error: msg}
	}
	return doc
}

// GetStoredData never fails: a missing or unreadable document is reported
// through the Error field and a nil BitcoinData.
func GetStoredData(store Store) models.StoredData {
	var doc models.StoredData
	if msg := getDocument(store, DataKey, &doc); msg != "" {
		return models.StoredData{Error: msg}
	}
	return doc
}

// StoreParams replaces the parameters document and reports success
func StoreParams(store Store, doc models.StoredParams) bool {
	return putDocument(store, ParamsKey, doc)
}

// StoreData replaces the snapshot document and reports success
func StoreData(store Store, doc models.StoredData) bool {
	return putDocument(store, DataKey, doc)
}

func getDocument(store Store, key string, out interface{}) string {
	raw, err := store.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return noDataFound
		}
		logger.Error("Failed to read stored document %s: %v", key, err)
		return readFailed
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.Error("Stored document %s is not valid JSON: %v", key, err)
		return readFailed
	}

	return ""
}

func putDocument(store Store, key string, doc interface{}) bool {
	raw, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to encode document %s: %v", key, err)
		return false
	}

	if err := store.Put(key, raw); err != nil {
		logger.Error("Failed to save document %s: %v", key, err)
		return false
	}

	logger.Debug("Saved document %s (%d bytes)", key, len(raw))
	return true
}
