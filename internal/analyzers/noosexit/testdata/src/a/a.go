package main

import (
	"os"
	sys "os"
)

func run() int { return 0 }

func helper() {
	os.Exit(3)
}

func main() {
	defer func() {
		os.Exit(2)
	}()
	helper()
	os.Exit(run()) // want "do not call os.Exit inside main"
	sys.Exit(1)    // want "do not call os.Exit inside main"
}
