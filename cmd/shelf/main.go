// Command shelf manages named keyed stores from the command line.
package main

import "github.com/mesh-intelligence/patterns/internal/cli"

func main() {
	cli.Execute()
}
