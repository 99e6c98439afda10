// Command couchauth manages sessions, server admins and users of a CouchDB
// server from the command line.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
