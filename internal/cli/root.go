package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/casadoar/payrecon/internal/backend"
	"github.com/casadoar/payrecon/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver string
	DSN    string
	Format string // "json" | "text"

	// open is replaced in tests.
	open   func(ctx context.Context, driver, dsn string) (*backend.Backend, error)
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reconctl CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: backend.Open, logger: zap.NewNop()})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reconctl",
		Short:         "Inspect and reconcile payment records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "record store driver (postgres|sqlite), defaults to STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database URL or sqlite path, defaults to DATABASE_URL / SQLITE_PATH")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) openBackend(ctx context.Context) (*backend.Backend, error) {
	driver := o.Driver
	if driver == "" {
		driver = config.StoreDriver()
	}
	dsn := o.DSN
	if dsn == "" {
		if driver == backend.DriverSQLite {
			dsn = config.SQLitePath()
		} else {
			dsn = config.DatabaseURL()
		}
	}
	return o.open(ctx, driver, dsn)
}

// print writes v as JSON, or text via the given formatter.
func (o *RootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
