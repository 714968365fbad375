package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/casadoar/payrecon/internal/buildconfig"
	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/service"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record and notification tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <resource-id>",
		Short: "Register a PENDING record for a new charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			rec, err := service.NewRecordService(b.Records, b.Notifications).Register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) { printRecord(w, rec) })
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource-id>",
		Short: "Show the current state of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			rec, err := service.NewRecordService(b.Records, b.Notifications).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) { printRecord(w, rec) })
		},
	}
}

func newApplyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <resource-id> <state>",
		Short: "Reconcile a record to CONFIRMED or FAILED by hand",
		Long: "Runs the same guarded update as provider webhooks: a CONFIRMED record\n" +
			"is never downgraded and nothing returns to PENDING.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseState(args[1])
			if err != nil {
				return err
			}

			b, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			r := service.NewReconciler(b.Records, nil, opts.logger)
			r.SetNotificationLog(b.Notifications)
			result, err := r.Apply(cmd.Context(), domain.Notification{
				Provider:      "reconctl",
				ResourceID:    args[0],
				ReportedState: st,
			})
			if err != nil {
				return err
			}

			out := map[string]any{"resource_id": args[0], "state": st, "result": result}
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "%s -> %s: %s\n", args[0], st, result)
			})
		},
	}
}

func newVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildconfig.Get()
			return opts.print(cmd.OutOrStdout(), info, func(w io.Writer) {
				fmt.Fprintln(w, info.String())
			})
		},
	}
}

func printRecord(w io.Writer, rec *domain.ReconciliationRecord) {
	fmt.Fprintf(w, "%s\t%s\tupdated %s\n", rec.ResourceID, rec.CurrentState, rec.UpdatedAt.Format(time.RFC3339))
}
