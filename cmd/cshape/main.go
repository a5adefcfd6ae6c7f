package main

import "martianoff/cshape/cmd/cshape/commands"

func main() {
	commands.Execute()
}
