package main

import (
	"primenet-sync/cmd/primenet-sync/commands"
	"primenet-sync/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
