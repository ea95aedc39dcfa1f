// Command triagectl is the mailtriage admin CLI: schema migrations and
// tenant, user and token bootstrap.
package main

import "os"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
