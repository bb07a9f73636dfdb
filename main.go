package main

import (
	"os"

	"socialpost/service"
)

var exit = os.Exit

func main() {
	exit(service.Execute())
}
