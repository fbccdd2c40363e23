/*
skylink process: perfect links and layered broadcast over UDP
*/
package main

import "github.com/skycoin/skylink/cmd/skylink-node/commands"

func main() {
	commands.Execute()
}
