// sample implementation, do not build or test
//go:build ignore

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GetHardwareID derives a stable identifier for this machine. The server
// treats it as opaque, so any stable string works.
func GetHardwareID() string {
	raw := strings.Join([]string{
		getMachineID(),
		getCPUID(),
		getDiskID(),
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:16]))
}
