package main

import "github.com/user/stigctl/cmd"

func main() {
	cmd.Execute()
}
