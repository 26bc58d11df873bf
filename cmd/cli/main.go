package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finvault-cli",
		Short: "FinVault ledger CLI tool",
		Long:  `A command line interface for interacting with the FinVault ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that all ledger entries sum to zero",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Replay every account and report discrepancies",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/ledger/report")
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + url.PathEscape(args[0]) + "/balance")
		},
	}

	ledgerCmd.AddCommand(consistencyCmd, reportCmd, balanceCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Audit commands
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail operations",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the integrity of the audit hash chain",
		Run: func(cmd *cobra.Command, args []string) {
			verifyChain()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit trail with its integrity attestation",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/audit/export")
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize audit activity over the last 30 days",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/audit/summary")
		},
	}

	auditCmd.AddCommand(verifyCmd, exportCmd, summaryCmd)
	rootCmd.AddCommand(auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func fetch(path string) []byte {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	return body
}

func getJSON(path string) {
	body := fetch(path)

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return
	}

	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func checkConsistency() {
	body := fetch("/api/v1/ledger/consistency")

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Println("Consistency check PASSED")
		return
	}

	fmt.Println("Consistency check FAILED")
	if detail, ok := result["detail"].(string); ok {
		fmt.Printf("Detail: %s\n", detail)
	}
	os.Exit(1)
}

func verifyChain() {
	body := fetch("/api/v1/audit/verify")

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if valid, ok := result["is_valid"].(bool); ok && valid {
		fmt.Printf("Audit chain VALID (%v entries)\n", result["entries"])
		return
	}

	fmt.Println("Audit chain BROKEN")
	if brokenAt, ok := result["broken_at"].(string); ok && brokenAt != "" {
		fmt.Printf("First broken entry: %s\n", brokenAt)
	}
	os.Exit(1)
}
