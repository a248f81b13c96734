package main

import (
	"github.com/minbackup/minbackup/pkg/cli"
)

func main() {
	cli.Execute()
}
