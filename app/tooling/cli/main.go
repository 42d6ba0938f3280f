// This program is the operator command line for a ledger node.
package main

import "github.com/roleledger/node/app/tooling/cli/cmd"

func main() {
	cmd.Execute()
}
