package main

import "github.com/theirongolddev/ghlc/cmd"

func main() {
	cmd.Execute()
}
