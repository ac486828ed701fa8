package main

import "github.com/mongomock/mongomock/cmd"

func main() {
	cmd.Execute()
}
