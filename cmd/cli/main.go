package main

import (
	"github.com/alvesdmateus/appsvc-deployer/internal/cli/commands"
)

func main() {
	commands.Execute()
}
