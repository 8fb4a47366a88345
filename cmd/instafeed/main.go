package main

import "instafeed/internal/cmd"

func main() {
	cmd.Run()
}
