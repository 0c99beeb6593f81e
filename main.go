package main

import "github.com/devnotmax/studify/cmd"

func main() {
	cmd.Execute()
}
