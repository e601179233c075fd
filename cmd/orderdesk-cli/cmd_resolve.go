// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/orderdesk/services/resolver"
)

// httpClient is shared by the subcommands. Resolution can take a while
// when the server falls back to scanning, so the budget is generous.
var httpClient = &http.Client{Timeout: 2 * time.Minute}

// runResolveCommand posts the reference to the server and renders the
// result: a table on a TTY, raw JSON when piped.
func runResolveCommand(_ *cobra.Command, args []string) {
	body, err := json.Marshal(map[string]string{"reference": args[0]})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp, err := httpClient.Post(serverURL+"/v1/orders/resolve", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach OrderDesk server at %s: %v\n", serverURL, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading response: %v\n", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		printServerError(resp.StatusCode, payload)
		os.Exit(1)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		os.Stdout.Write(payload)
		fmt.Println()
		return
	}

	var resolution resolver.Resolution
	if err := json.Unmarshal(payload, &resolution); err != nil {
		fmt.Fprintf(os.Stderr, "Error: decoding response: %v\n", err)
		os.Exit(1)
	}
	printResolutionTable(&resolution)
}

// printServerError renders the server's ErrorResponse, distinguishing the
// retryable timeout case for the operator.
func printServerError(status int, payload []byte) {
	var errResp resolver.ErrorResponse
	if err := json.Unmarshal(payload, &errResp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server returned %d\n", status)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %s (%s)\n", errResp.Error, errResp.Code)
	if errResp.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", errResp.Hint)
	}
	if status == http.StatusGatewayTimeout {
		fmt.Fprintln(os.Stderr, "The commerce platform timed out; try again.")
	}
}

// printResolutionTable renders the resolved order's lines.
func printResolutionTable(resolution *resolver.Resolution) {
	fmt.Printf("Order %s (matched by %s, %d lines)\n\n",
		resolution.ResolvedID, resolution.MatchedBy, resolution.LineCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tQTY\tPRICE\tWAREHOUSE\tKIT")
	for _, line := range resolution.Lines {
		price := "-"
		if line.UnitPrice != nil {
			price = fmt.Sprintf("%.2f", *line.UnitPrice)
		}
		kit := ""
		switch {
		case line.IsKitHeader:
			kit = "header"
		case line.IsKitComponent:
			kit = "part of " + line.KitParentSKU
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			line.SKU, line.ProductName, line.Quantity, price, line.Warehouse, kit)
	}
	w.Flush()
}

// runKitsCommand fetches and prints the server's loaded kit table.
func runKitsCommand(_ *cobra.Command, _ []string) {
	resp, err := httpClient.Get(serverURL + "/v1/orders/kits")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach OrderDesk server at %s: %v\n", serverURL, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading response: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		printServerError(resp.StatusCode, payload)
		os.Exit(1)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		os.Stdout.Write(payload)
		fmt.Println()
		return
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, payload, "", "  "); err != nil {
		os.Stdout.Write(payload)
		fmt.Println()
		return
	}
	fmt.Println(indented.String())
}
