package backup

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/storage"
)

// GetDefaultBackupDir returns the default backup directory
func GetDefaultBackupDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "backups"), nil
}

// CreateBackup archives every document in store into a timestamped zip under
// backupDir. Each document is written as <key>.json.
func CreateBackup(store storage.Store, backupDir string) (string, error) {
	if backupDir == "" {
		var err error
		backupDir, err = GetDefaultBackupDir()
		if err != nil {
			return "", fmt.Errorf("failed to get default backup directory: %w", err)
		}
	}

	keys, err := store.Keys()
	if err != nil {
		return "", fmt.Errorf("failed to list stored documents: %w", err)
	}
	if len(keys) == 0 {
		logger.Warn("No stored documents, backup will be empty")
	}

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFile := filepath.Join(backupDir, fmt.Sprintf("wallet-watch_backup_%s.zip", timestamp))

	zipFile, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	for _, key := range keys {
		if err := AddToZip(store, key, zipWriter); err != nil {
			zipWriter.Close()
			return "", fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize backup: %w", err)
	}

	logger.Info("Backup created successfully: %s", backupFile)
	return backupFile, nil
}

// AddToZip copies the document stored under key into zipWriter
func AddToZip(store storage.Store, key string, zipWriter *zip.Writer) error {
	data, err := store.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	header := &zip.FileHeader{
		Name:     key + ".json",
		Method:   zip.Deflate,
		Modified: time.Now(),
	}

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create file in zip: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to copy document contents: %w", err)
	}

	logger.Debug("Added document to backup: %s", key)
	return nil
}
