package main

import (
	"fmt"
	"os"
)

// exit is swapped out in tests.
var exit = os.Exit

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	exit(1)
}
