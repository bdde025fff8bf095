// sample implementation, do not build or test
//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type ActivateRequest struct {
	LicenseKey  string `json:"licenseKey"`
	HardwareID  string `json:"hardwareId"`
	MachineName string `json:"machineName,omitempty"`
}

type ValidateRequest struct {
	LicenseKey string `json:"licenseKey"`
	HardwareID string `json:"hardwareId"`
}

type LicenseInfo struct {
	Key           string     `json:"key"`
	Plan          string     `json:"plan"`
	PlanID        string     `json:"planId"`
	Status        string     `json:"status"`
	CustomerName  *string    `json:"customerName"`
	ActivatedAt   *time.Time `json:"activatedAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
}

type ActivateResponse struct {
	Success          bool         `json:"success"`
	License          *LicenseInfo `json:"license,omitempty"`
	Error            string       `json:"error,omitempty"`
	Code             string       `json:"code,omitempty"`
	ActivatedMachine *string      `json:"activatedMachine,omitempty"`
}

type ValidateResponse struct {
	Valid   bool         `json:"valid"`
	License *LicenseInfo `json:"license,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
}

// LicenseError carries the machine-readable code returned by the server.
type LicenseError struct {
	Code    string
	Message string
}

func (e *LicenseError) Error() string { return e.Code + ": " + e.Message }

// ActivateLicense binds licenseKey to this machine.
func ActivateLicense(baseURL, apiKey, licenseKey, machineName string) (*LicenseInfo, error) {
	var result ActivateResponse
	status, err := post(baseURL+"/api/licenses/activate", apiKey, ActivateRequest{
		LicenseKey:  licenseKey,
		HardwareID:  GetHardwareID(),
		MachineName: machineName,
	}, &result)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		if result.Code == "" {
			return nil, fmt.Errorf("activation failed: %d %s", status, result.Error)
		}
		return nil, &LicenseError{Code: result.Code, Message: result.Error}
	}
	return result.License, nil
}

// ValidateLicense is the periodic check. A network error should fall back
// to the stored license until its expiry; a LicenseError should not.
func ValidateLicense(baseURL, apiKey, licenseKey string) (*LicenseInfo, error) {
	var result ValidateResponse
	status, err := post(baseURL+"/api/licenses/validate", apiKey, ValidateRequest{
		LicenseKey: licenseKey,
		HardwareID: GetHardwareID(),
	}, &result)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		if result.Code == "" {
			return nil, fmt.Errorf("validation failed: %d %s", status, result.Error)
		}
		return nil, &LicenseError{Code: result.Code, Message: result.Error}
	}
	return result.License, nil
}

func post(url, apiKey string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, fmt.Errorf("request rejected: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
