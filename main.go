/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/TodoChat/cmd"
	"github.com/josephgoksu/TodoChat/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
