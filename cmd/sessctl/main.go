// Command sessctl inspects and maintains persisted sessions against the
// file or Redis driver: list ids, dump a session's decoded values, remove
// sessions, and sweep expired ones.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggoodman/http-sessions-go/driver"
	"github.com/ggoodman/http-sessions-go/driver/filedriver"
	"github.com/ggoodman/http-sessions-go/driver/redisdriver"
	"github.com/ggoodman/http-sessions-go/store"
)

var (
	flagDir       string
	flagRedisAddr string
	flagPrefix    string
	flagTTL       time.Duration
)

// lister is the operational surface shared by the file and Redis drivers.
type lister interface {
	driver.Driver
	List(ctx context.Context) ([]string, error)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sessctl",
		Short: "Inspect and maintain persisted HTTP sessions",
		Long: `sessctl operates on the session payloads written by the file and
Redis drivers. Payloads are decoded through the session store, so values
are shown with their original type tags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "./sessions", "session directory (file driver)")
	rootCmd.PersistentFlags().StringVar(&flagRedisAddr, "redis", "", "redis address; selects the redis driver when set")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "sess:", "redis key prefix")
	rootCmd.PersistentFlags().DurationVar(&flagTTL, "ttl", 2*time.Hour, "session lifetime used by sweep")

	rootCmd.AddCommand(
		listCmd(),
		showCmd(),
		removeCmd(),
		sweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func openDriver() (lister, func(), error) {
	if flagRedisAddr != "" {
		d, err := redisdriver.New(redisdriver.Config{RedisAddr: flagRedisAddr, KeyPrefix: flagPrefix, TTL: flagTTL})
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	}
	d, err := filedriver.New(filedriver.Config{Dir: flagDir, TTL: flagTTL})
	if err != nil {
		return nil, nil, err
	}
	return d, func() { _ = d.Close() }, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored session ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDriver()
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := d.List(cmd.Context())
			if err != nil {
				return err
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var rawOut bool
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Dump a session's values with their type tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDriver()
			if err != nil {
				return err
			}
			defer closeFn()

			payload, ok, err := d.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("session %s not found", args[0])
			}
			if rawOut {
				fmt.Println(payload)
				return nil
			}

			var pairs map[string]store.Pair
			if err := json.Unmarshal([]byte(payload), &pairs); err != nil {
				return fmt.Errorf("payload is not a session mapping: %w", err)
			}
			keys := make([]string, 0, len(pairs))
			for k := range pairs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-24s %-8s %s\n", k, pairs[k].Kind, pairs[k].Data)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rawOut, "raw", false, "print the raw payload instead of decoded pairs")
	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-id>",
		Short: "Remove a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDriver()
			if err != nil {
				return err
			}
			defer closeFn()
			return d.Remove(cmd.Context(), args[0])
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove sessions older than the configured TTL (file driver)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagRedisAddr != "" {
				return fmt.Errorf("the redis driver expires sessions itself; sweep applies to the file driver")
			}
			d, err := filedriver.New(filedriver.Config{Dir: flagDir, TTL: flagTTL})
			if err != nil {
				return err
			}
			defer d.Close()

			removed, err := d.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired session(s)\n", removed)
			return nil
		},
	}
}
