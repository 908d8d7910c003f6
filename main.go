package main

import (
	"os"

	"github.com/hUstbit37/ipms-search-sub001/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
