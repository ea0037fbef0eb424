package main

import (
	"ptfeed/cmd"

	_ "golang.org/x/crypto/x509roots/fallback" // We need this to make TLS work in scratch containers
	_ "time/tzdata"                            // Asia/Manila must resolve without a system zoneinfo
)

func main() {
	cmd.Execute()
}
