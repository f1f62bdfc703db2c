package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// SwapCommand is a parsed `swap <amount> <token> to <token>` invocation.
type SwapCommand struct {
	Amount    string
	FromToken string
	ToToken   string
}

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 0.5 ETH to USDC"
//   - "1.5 ETH to WBTC"
//   - "100 USDC to ETH"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	// Pattern: <amount> <from_token> TO <to_token>
	// Matches: "0.5 ETH TO USDC", "1.5 ETH TO WBTC", "100.25 USDC TO ETH"
	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 0.5 ETH to USDC')")
	}

	return &SwapCommand{
		Amount:    matches[1],
		FromToken: matches[2],
		ToToken:   matches[3],
	}, nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	// Convert to uppercase for consistency
	return strings.TrimSpace(strings.ToUpper(symbol))
}
