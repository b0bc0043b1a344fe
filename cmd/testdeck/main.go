package main

import (
	"github.com/testdeck/testdeck/internal/cli"
)

func main() {
	cli.Execute()
}
