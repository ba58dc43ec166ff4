package main

import (
	"os"

	"github.com/Fepozopo/stdcontrast/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
