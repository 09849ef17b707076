package main

import (
	"locmirror/cmd"
)

func main() {
	cmd.Execute()
}
