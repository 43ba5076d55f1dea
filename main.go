package main

import "github.com/emrgen/bookshelf/cmd"

func main() {
	cmd.Execute()
}
