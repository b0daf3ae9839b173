package main

import "brick-manager/cmd"

func main() {
	cmd.Execute()
}
