// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command orderdesk-cli is the staff-terminal client for a running
// OrderDesk server.
//
// Usage:
//
//	orderdesk-cli resolve 22-12345-67890
//	orderdesk-cli resolve RMA-10442 --server http://desk-1:8080
//	orderdesk-cli kits
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL holds the --server flag value shared by all subcommands.
var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "orderdesk-cli",
		Short: "Staff client for the OrderDesk resolution API",
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080",
		"OrderDesk server base URL")

	resolveCmd := &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Resolve an order reference and print its lines",
		Args:  cobra.ExactArgs(1),
		Run:   runResolveCommand,
	}

	kitsCmd := &cobra.Command{
		Use:   "kits",
		Short: "Print the kit table loaded by the server",
		Run:   runKitsCommand,
	}

	rootCmd.AddCommand(resolveCmd, kitsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
