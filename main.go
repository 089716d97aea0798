package main

import (
	"os"

	"github.com/scan-io-git/cfamily-bridge/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
