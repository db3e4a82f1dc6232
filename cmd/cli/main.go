// bilog - Log Time Range Locator
//
// bilog finds the first and last timestamps of a log file by reading a few
// kilobytes from each end, and prints the lines inside a time window.
package main

import (
	"os"

	"github.com/ccollicutt/bilog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
