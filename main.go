package main

import "github.com/gaswatch-project/gaswatch/cmd"

func main() {
	cmd.Execute()
}
