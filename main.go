package main

import "github.com/itsmostafa/docai/cmd"

func main() {
	cmd.Execute()
}
