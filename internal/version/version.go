package version

import (
	"fmt"
	"runtime"
	"strconv"
	"time"
)

// Version is the application version. Can be overridden at build time via:
//
//	go build -ldflags "-X lprime.com/licserver/internal/version.Version=1.2.3"
var Version = "1.0"

// Commit is the VCS revision, set at build time the same way as Version.
var Commit = "dev"

// Banner prints identifying information about the server.
func Banner() string {
	y := strconv.Itoa(time.Now().Year())
	copyright := "Copyright 2024-" + y + " Licitante Prime. All rights reserved."

	return fmt.Sprintf("%s\nLicserver (v%s, %s, %s)\n%s\n", product(), Version, Commit, runtime.Version(), copyright)
}

func product() string {
	const s = `
  _ _
 | (_) ___ ___  ___ _ ____   _____ _ __
 | | |/ __/ __|/ _ \ '__\ \ / / _ \ '__|
 | | | (__\__ \  __/ |   \ V /  __/ |
 |_|_|\___|___/\___|_|    \_/ \___|_|
`
	return s
}
