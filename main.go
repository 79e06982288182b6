package main

import "github.com/psmodkit/build-tools/cmd"

func main() {
	cmd.Execute()
}
