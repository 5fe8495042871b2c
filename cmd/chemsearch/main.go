package main

import (
	"github.com/chembase-labs/chemsearch/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
