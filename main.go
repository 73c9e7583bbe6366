package main

import (
	"github.com/manifest-network/tealcounter/cmd/tealcounter"
)

func main() {
	tealcounter.Execute()
}
