package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheBackendsCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all entries of the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if b := c.cfg.Cache.Backend; b != "" && !strings.EqualFold(b, cache.BackendFile) {
				printWarning("The %s backend expires entries itself; only the file cache can be cleared", b)
				return nil
			}

			dir := c.cacheDir()
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err == nil && !d.IsDir() {
					count++
				}
				return nil
			})

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer fc.Close()
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.cacheDir())
			return nil
		},
	}
}

// cacheBackendsCommand creates the "cache backends" subcommand.
func (c *CLI) cacheBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List cache backends and show which one is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured := strings.ToLower(c.cfg.Cache.Backend)
			if configured == "" {
				configured = cache.BackendFile
			}
			details := map[string]string{
				cache.BackendNone:  "no caching",
				cache.BackendFile:  c.cacheDir(),
				cache.BackendRedis: c.cfg.Cache.RedisAddr,
				cache.BackendMongo: strings.TrimSpace(c.cfg.Cache.MongoURI + " " + c.cfg.Cache.MongoDatabase),
			}

			rows := make([][]string, 0, len(cache.Backends))
			marked := make(map[int]bool)
			for i, b := range cache.Backends {
				mark := ""
				if b == configured {
					mark = iconSuccess
					marked[i] = true
				}
				rows = append(rows, []string{mark, b, details[b]})
			}
			writeTable(cmd.OutOrStdout(), []string{"", "Backend", "Settings"}, rows, marked)
			printNextStep("Change it in", "[cache] backend in "+c.configFile())
			return nil
		},
	}
}

// configFile names the config file in use.
func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}
