package main

import "github.com/storywalk/storywalk/cmd"

func main() {
	cmd.Execute()
}
