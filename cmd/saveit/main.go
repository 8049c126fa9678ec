package main

import (
	"saveit/cmd/cmd"
	"saveit/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
