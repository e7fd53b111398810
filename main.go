package main

import "github.com/atlas-vision/atlas/cmd"

func main() {
	cmd.Execute()
}
