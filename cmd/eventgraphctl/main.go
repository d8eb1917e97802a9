// Command eventgraphctl is the operator CLI over the event-graph core:
// a thin cobra front end that wires the store and every repository/service
// together and invokes them directly, since the core's API is
// aggregate-rooted, not HTTP (spec.md §6: "transport is external").
package main

import (
	"os"

	"github.com/hangouts-inviter/eventgraph/cmd/eventgraphctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
