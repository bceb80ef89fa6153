// Command cachesim replays a memory trace through a write-back cache
// hierarchy and reports its statistics.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
