// godash7ctl -- CLI client for the godash7 daemon's introspection endpoint.
package main

import "github.com/dantte-lp/godash7/cmd/godash7ctl/commands"

func main() {
	commands.Execute()
}
