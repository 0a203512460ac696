package main

import "github.com/3103lab/sbdp/cmd"

func main() {
	cmd.Execute()
}
