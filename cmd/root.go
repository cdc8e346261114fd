package cmd

import (
	"os"

	"github.com/mezonai/fastpay/logx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fastpay",
	Short: "FastPay authority and client CLI",
	Long:  "Command line interface for running a FastPay authority and sending payments through a committee of authorities.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
