// Command keycast shows the key combos being typed in an on-screen overlay.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
