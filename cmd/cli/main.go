// Command paydesk is a terminal client for the payment dashboard. It keeps
// its session and data in a local store between runs.
package main

import (
	"os"

	"github.com/pterm/pterm"
)

func main() {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}
	if err := newRootCmd(&env{}).Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
