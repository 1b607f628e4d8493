package main

import "github.com/gmtsync/gmt/cmd"

func main() {
	cmd.Execute()
}
