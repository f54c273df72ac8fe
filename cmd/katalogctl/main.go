// katalogctl runs the katalog rule engine, title cleanup and AI enhancement
// from the command line, without the HTTP service.
package main

import (
	"os"

	"github.com/kailas-cloud/katalog/cmd/katalogctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
