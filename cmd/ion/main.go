// Command ion is a terminal AI agent with tool use, session persistence,
// and pluggable providers.
package main

import (
	"github.com/ion-cli/ion/cmd"
)

func main() {
	cmd.Execute()
}
