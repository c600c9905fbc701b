package main

import (
	"os"

	"github.com/Dicklesworthstone/diveboard/internal/cli"
	"github.com/Dicklesworthstone/diveboard/internal/utils"
)

func main() {
	utils.InitDefaultLogger()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
