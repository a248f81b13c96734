package main

import (
	"log"

	"github.com/minbackup/minbackup/pkg/daemon"
)

func main() {
	if err := daemon.Run(); err != nil {
		log.Fatal(err)
	}
}
