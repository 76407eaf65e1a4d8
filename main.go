package main

import "github.com/flatzdev/rtarc/cmd"

func main() {
	cmd.Execute()
}
