package main

import "github.com/Surya5599/habittracker/cmd"

func main() {
	cmd.Execute()
}
