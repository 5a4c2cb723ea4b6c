package main

import "crosplan/cmd"

func main() {
	cmd.Execute()
}
