// Package main generates the shared secrets the site backend expects:
// the admin token (with its bcrypt hash for ADMIN_TOKEN) and the CMS
// revalidation webhook secret.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"confsite/pkg/secrets"
)

type tokenOutput struct {
	AdminToken       string            `json:"admin_token"`
	AdminTokenHash   string            `json:"admin_token_hash"`
	RevalidateSecret string            `json:"revalidate_secret"`
	Usage            map[string]string `json:"usage"`
}

func main() {
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	out, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Admin token (give to editors):  %s\n", out.AdminToken)
	fmt.Printf("ADMIN_TOKEN (server env):       %s\n", out.AdminTokenHash)
	fmt.Printf("REVALIDATE_SECRET:              %s\n", out.RevalidateSecret)
	fmt.Println()
	for k, v := range out.Usage {
		fmt.Printf("%s: %s\n", k, v)
	}
}

func generate() (*tokenOutput, error) {
	admin, err := secrets.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(admin)
	if err != nil {
		return nil, err
	}
	revalidate, err := secrets.Generate()
	if err != nil {
		return nil, err
	}
	return &tokenOutput{
		AdminToken:       admin,
		AdminTokenHash:   hash,
		RevalidateSecret: revalidate,
		Usage: map[string]string{
			"verify":     `curl -X POST /api/verify-token -H 'Content-Type: application/json' -d '{"token":"<admin token>"}'`,
			"revalidate": "configure the CMS webhook to send x-webhook-secret: <REVALIDATE_SECRET>",
		},
	}, nil
}
