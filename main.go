package main

import "github.com/xvierd/studyx/cmd"

func main() {
	cmd.Execute()
}
