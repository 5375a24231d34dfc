// Command slipway is the build sequence scheduler CLI.
package main

import "github.com/harborline/slipway/cmd"

func main() {
	cmd.Execute()
}
