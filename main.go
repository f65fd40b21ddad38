package main

import (
	"github.com/tracefec/tracefec/cmd"
)

func main() {
	cmd.Execute()
}
