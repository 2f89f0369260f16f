// rewatch supervises a command and restarts it when source files change.
package main

import (
	"os"

	"github.com/hupe1980/rewatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
