package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/api"
)

// renderJSON writes v as indented JSON to the command's stdout. Prices
// serialize as integer minor units, matching the wire format.
func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// renderProductsTable writes one line per product.
func renderProductsTable(cmd *cobra.Command, products []api.Product) {
	if len(products) == 0 {
		cmd.Println("No products found.")
		return
	}
	cmd.Printf("%-6s %-32s %-12s %s\n", "ID", "NAME", "PRICE", "SELLER")
	for _, p := range products {
		seller := "-"
		if p.Seller != nil {
			seller = p.Seller.Username
		}
		cmd.Printf("%-6d %-32s %-12s %s\n", p.ID, clip(p.Name, 32), p.Price, seller)
	}
	cmd.Printf("\n%d product(s)\n", len(products))
}

// renderProductDetail writes one product as a labeled block.
func renderProductDetail(cmd *cobra.Command, p *api.Product) {
	cmd.Printf("ID:          %d\n", p.ID)
	cmd.Printf("Name:        %s\n", p.Name)
	cmd.Printf("Price:       %s\n", p.Price)
	if p.Description != "" {
		cmd.Printf("Description: %s\n", p.Description)
	}
	if p.Seller != nil {
		cmd.Printf("Seller:      %s", p.Seller.Username)
		if p.Seller.Email != "" {
			cmd.Printf(" <%s>", p.Seller.Email)
		}
		cmd.Println()
	}
}

// renderUsersTable writes one line per account.
func renderUsersTable(cmd *cobra.Command, users []api.User) {
	if len(users) == 0 {
		cmd.Println("No users found.")
		return
	}
	cmd.Printf("%-6s %-20s %-28s %s\n", "ID", "USERNAME", "EMAIL", "ROLE")
	for _, u := range users {
		role := "user"
		if u.IsAdmin {
			role = "admin"
		}
		cmd.Printf("%-6d %-20s %-28s %s\n", u.ID, clip(u.Username, 20), clip(u.Email, 28), role)
	}
	cmd.Printf("\n%d user(s)\n", len(users))
}

// renderUser writes one account as a labeled block.
func renderUser(cmd *cobra.Command, u *api.User) {
	cmd.Printf("ID:       %d\n", u.ID)
	cmd.Printf("Username: %s\n", u.Username)
	if u.Email != "" {
		cmd.Printf("Email:    %s\n", u.Email)
	}
	if u.Phone != "" {
		cmd.Printf("Phone:    %s\n", u.Phone)
	}
	if u.Address != "" {
		cmd.Printf("Address:  %s\n", u.Address)
	}
	if u.IsAdmin {
		cmd.Println("Role:     admin")
	}
}

// clip shortens s to maxLen runes; byte slicing would split multi-byte
// names mid-rune.
func clip(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
