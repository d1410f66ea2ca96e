package main

import (
	"os"

	"github.com/JonMunkholm/csvview/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand()))
}
