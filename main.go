package main

import (
	"github.com/mezonai/fastpay/cmd"
	"github.com/mezonai/fastpay/exception"
)

func main() {
	defer exception.Recover("main")

	cmd.Execute()
}
