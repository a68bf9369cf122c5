package main

import "github.com/miyamgo/tmod-launcher/cmd"

func main() {
	cmd.Execute()
}
