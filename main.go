package main

import "github.com/samsaffron/agent-term/cmd"

func main() {
	cmd.Execute()
}
