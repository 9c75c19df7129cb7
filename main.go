package main

import "github.com/user/ytlearn/cmd"

func main() {
	cmd.Execute()
}
