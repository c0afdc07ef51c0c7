package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/spf13/cobra"
)

var (
	hashAlgorithm  string
	hashBcryptCost int
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a password digest",
	Long:  `Hash a password with the chosen algorithm and verify the digest before printing it. Reads the password from stdin when no argument is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var plain string
		if len(args) == 1 {
			plain = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			plain = strings.TrimRight(line, "\r\n")
		}
		if plain == "" {
			return errors.New("password is empty")
		}

		hasher, err := auth.NewPasswordHasher(hashAlgorithm, hashBcryptCost)
		if err != nil {
			return err
		}
		digest, err := hasher.Hash(plain)
		if err != nil {
			return err
		}
		ok, err := hasher.Verify(plain, digest)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("digest failed self-verification")
		}

		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().StringVar(&hashAlgorithm, "algorithm", "bcrypt", "bcrypt or argon2id")
	hashPasswordCmd.Flags().IntVar(&hashBcryptCost, "cost", 12, "bcrypt cost")
}
