package main

import (
	"github.com/romain325/doc-thor-confgen/cmd"
	"github.com/romain325/doc-thor-confgen/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
