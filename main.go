package main

import (
	"os"

	"github.com/xkilldash9x/vise/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
