// Package main is the entry point for cdsconsole.
package main

import "github.com/morrisclay/cds-console/internal/cli"

func main() {
	cli.Execute()
}
