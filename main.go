package main

import "github.com/klytics/prpulse/cmd"

func main() {
	cmd.Execute()
}
