// Command ndcat manages a local catalog of game dumps: it keeps a
// SQLite-backed catalog of known-good ROMs current against the Redump
// and No-Intro curators, then imports and verifies dumps against it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
