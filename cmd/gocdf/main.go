package main

import (
	"github.com/heliolib/gocdf/cmd/gocdf/cmd"
)

func main() {
	cmd.Execute()
}
