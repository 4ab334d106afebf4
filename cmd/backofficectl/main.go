package main

import (
	"os"

	"github.com/fieldcart/backoffice/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
