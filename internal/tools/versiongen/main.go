package main

import (
	"fmt"
	"os"
	"strings"

	"pkt.systems/traycon/internal/version"
)

func main() {
	ver := strings.TrimSpace(version.Current())
	if ver == "" {
		ver = "v0.0.0-unknown"
	}
	fmt.Fprintln(os.Stdout, ver)
}
