package main

import (
	"github.com/alecthomas/kong"

	"droscher.com/SipGargoyle/cmd"
)

func main() {
	ctx := kong.Parse(&cmd.CLI, kong.Name("Sip Gargoyle"), kong.Description("SipGargoyle is a personal drink logging and statistics tool."))
	err := ctx.Run(&cmd.Context{Debug: cmd.CLI.Debug})
	ctx.FatalIfErrorf(err)
}
