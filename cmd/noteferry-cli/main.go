package main

import "noteferry/cmd/noteferry-cli/cmd"

func main() {
	cmd.Execute()
}
