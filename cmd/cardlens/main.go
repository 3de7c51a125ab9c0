package main

import "github.com/cardlens/cardlens/cmd/cardlens/cmd"

func main() {
	cmd.Execute()
}
