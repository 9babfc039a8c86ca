package main

import (
	"fmt"
	"os"

	"bankstmt/statement-core/cmd/detect"
	"bankstmt/statement-core/cmd/identity"
	"bankstmt/statement-core/cmd/learn"
	"bankstmt/statement-core/cmd/parse"
	"bankstmt/statement-core/cmd/profilescmd"
	"bankstmt/statement-core/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(detect.Cmd)
	root.Cmd.AddCommand(identity.Cmd)
	root.Cmd.AddCommand(profilescmd.Cmd)
	root.Cmd.AddCommand(learn.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
