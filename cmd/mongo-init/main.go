// Package main is the entry point for mongo-init, the first-start job that
// provisions the application's MongoDB account.
package main

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	Execute()
}
