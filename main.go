package main

import "github.com/t3-tools/t3-cli/cmd"

func main() {
	cmd.Execute()
}
