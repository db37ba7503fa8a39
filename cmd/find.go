package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/emailfinder"
)

var (
	findName    string
	findFirst   string
	findLast    string
	findDomain  string
	findBackend string
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find a verified email for one founder",
	RunE: func(cmd *cobra.Command, args []string) error {
		if findName == "" && (findFirst == "" || findLast == "") {
			return eris.New("provide --name, or both --first and --last")
		}

		verifier, err := newVerifier(findBackend)
		if err != nil {
			return err
		}
		finder := emailfinder.NewFinder(verifier)

		var result *emailfinder.Verification
		if findName != "" {
			result = finder.FindEmailFromFullName(cmd.Context(), findName, findDomain)
		} else {
			result = finder.FindValidEmail(cmd.Context(), findFirst, findLast, findDomain)
		}

		if result == nil {
			return eris.Errorf("no valid email found for domain %s", findDomain)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	findCmd.Flags().StringVar(&findName, "name", "", "founder full name")
	findCmd.Flags().StringVar(&findFirst, "first", "", "founder first name")
	findCmd.Flags().StringVar(&findLast, "last", "", "founder last name")
	findCmd.Flags().StringVar(&findDomain, "domain", "", "company domain (required)")
	findCmd.Flags().StringVar(&findBackend, "backend", "api", "verification backend: api or smtp")
	_ = findCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(findCmd)
}
