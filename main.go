package main

import "github.com/icco/melodygrid/cmd"

func main() {
	cmd.Execute()
}
