// sample implementation, do not build or test
//go:build ignore

package main

// License file storage for offline grace periods.
// Stores the last server-confirmed license as JSON in a well-known location.

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	companyName = "LicitantePrime"
	productName = "Licitante"
	fileName    = "license.json"
)

// GetStorageDirectory returns the directory where the license file is stored.
// Creates the directory if it doesn't exist.
// On Windows: C:\ProgramData\Company\Product
// On Linux/macOS: /var/lib/Company/Product
func GetStorageDirectory() (string, error) {
	var basePath string

	if runtime.GOOS == "windows" {
		basePath = os.Getenv("ProgramData")
		if basePath == "" {
			basePath = `C:\ProgramData`
		}
	} else {
		basePath = "/var/lib"
	}

	path := filepath.Join(basePath, companyName, productName)

	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}

	return path, nil
}

// GetLicenseFilePath returns the full path to the license file.
func GetLicenseFilePath() (string, error) {
	dir, err := GetStorageDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// SaveLicense stores the license returned by activate or validate.
func SaveLicense(info *LicenseInfo) error {
	path, err := GetLicenseFilePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadLicense loads the previously saved license.
// Returns nil and no error if the file doesn't exist.
func LoadLicense() (*LicenseInfo, error) {
	path, err := GetLicenseFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var info LicenseInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// UsableOffline reports whether a stored license may be trusted while the
// server is unreachable.
func UsableOffline(info *LicenseInfo, now time.Time) bool {
	if info == nil || info.Status != "active" {
		return false
	}
	return info.ExpiresAt == nil || now.Before(*info.ExpiresAt)
}

// LicenseExists checks if a license file exists.
func LicenseExists() bool {
	path, err := GetLicenseFilePath()
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}

// DeleteLicense deletes the license file if it exists.
// Call it when the server answers BLOCKED or NOT_FOUND.
func DeleteLicense() error {
	path, err := GetLicenseFilePath()
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
