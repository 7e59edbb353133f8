package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSweepCommand runs one expiry sweep and exits. Meant for cron.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expira vagas vencidas e encerra suspensões concluídas (uma passada)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts, false)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.svc.Sweep.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vagas expiradas: %d\nsuspensões encerradas: %d\n", stats.ExpiredPostings, stats.LiftedSuspensions)
			return nil
		},
	}
}

// NewDispatchCommand sends one batch of pending notifications and exits.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Envia um lote de notificações pendentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts, false)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.dispatcher().RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enviadas: %d\nreagendadas: %d\nfalhas: %d\n", stats.Sent, stats.Retried, stats.Failed)
			return nil
		},
	}
}

// NewPurgeCommand deletes delivered notifications older than the retention.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove notificações já entregues mais antigas que a retenção",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention <= 0 {
				return fmt.Errorf("--retention deve ser positivo")
			}
			a, err := newApp(rootOpts, false)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.dispatcher().Purge(cmd.Context(), retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notificações removidas: %d\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 30*24*time.Hour, "idade mínima das notificações entregues a remover")
	return cmd
}
