package main

import "github.com/datasight/datasight-cli/cmd"

func main() {
	cmd.Execute()
}
