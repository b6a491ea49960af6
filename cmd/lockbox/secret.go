package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benaskins/lockbox/internal/keychain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	setAccessibility string
	setRawJSON       bool
	clearConfirmed   bool
	errSecretMissing = errors.New("secret not found")
)

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret",
	Long: "Store a secret. If value is omitted, reads from stdin (useful for piping).\n\n" +
		"Accessibility applies only when the secret is first created; later writes keep it.\n" +
		"Classes: " + accessibilityNames(),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else if value, err = readValue(); err != nil {
			return err
		}

		access := cfg.AccessibilityClass()
		if setAccessibility != "" {
			if access, err = keychain.ParseAccessibility(setAccessibility); err != nil {
				return err
			}
		}
		opt := keychain.WithAccessibility(access)

		if setRawJSON {
			var v any
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return fmt.Errorf("value for %q is not valid JSON: %w", key, err)
			}
			err = store.SetValue(key, v, opt)
		} else {
			err = keychain.Set(store, key, value, opt)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret %q stored\n", key)
		return nil
	},
}

// readValue prompts on a terminal, otherwise reads all of stdin.
func readValue() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Enter secret value: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		fmt.Println()
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}

		var v any
		ok, err := store.GetValue(args[0], &v)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", errSecretMissing, args[0])
		}

		if s, isString := v.(string); isString {
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

var hasCmd = &cobra.Command{
	Use:   "has <key>",
	Short: "Report whether a secret exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.HasValue(args[0]))
		return nil
	},
}

var accessCmd = &cobra.Command{
	Use:   "access <key>",
	Short: "Show the accessibility class of a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		a, ok := store.Accessibility(args[0])
		if !ok {
			if !store.HasValue(args[0]) {
				return fmt.Errorf("%w: %s", errSecretMissing, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unknown")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), a)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "rm <key>",
	Short:   "Remove a secret",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret %q deleted\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret in the namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		if !clearConfirmed {
			return fmt.Errorf("refusing to remove all secrets in %q without --yes", store.Namespace())
		}
		if err := store.RemoveAll(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "All secrets in %q deleted\n", store.Namespace())
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func accessibilityNames() string {
	var names []string
	for _, a := range keychain.Accessibilities() {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

func init() {
	setCmd.Flags().StringVar(&setAccessibility, "accessibility", "", "Accessibility class for a new secret (default from config)")
	setCmd.Flags().BoolVar(&setRawJSON, "json", false, "Treat value as a JSON document instead of a string")
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm removal of every secret in the namespace")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(hasCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
}
