package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plantao/backend/internal/api/handler"
	"plantao/backend/internal/api/router"
	"plantao/backend/internal/worker"
	"plantao/backend/pkg/database"
	"plantao/backend/pkg/jwt"
)

// ServeOptions flags of the serve command
type ServeOptions struct {
	Migrate    bool
	NoWorkers  bool
	ShutdownIn time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia a API HTTP, a varredura de expiração e o despacho de notificações",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", true, "aplica as migrações pendentes antes de iniciar")
	cmd.Flags().BoolVar(&opts.NoWorkers, "no-workers", false, "não inicia varredura nem despacho (outra instância cuida deles)")
	cmd.Flags().DurationVar(&opts.ShutdownIn, "shutdown-timeout", 10*time.Second, "prazo para o encerramento gracioso")

	return cmd
}

func runServe(parent context.Context, rootOpts *RootOptions, opts *ServeOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	a, err := newApp(rootOpts, true)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	if opts.Migrate {
		sqlDB, err := a.db.DB()
		if err != nil {
			return fmt.Errorf("falha ao obter sql.DB: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}
	}

	jwtMgr := jwt.NewManager(&a.cfg.Auth)
	h := handler.NewHandler(a.cfg, a.svc)
	engine := router.Setup(a.cfg, h, jwtMgr, a.rdb, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if !opts.NoWorkers {
		runners := []*worker.Runner{
			worker.NewSweeper(a.svc.Sweep, a.cfg.Sweep.Interval, logger),
			worker.NewDispatcher(a.dispatcher(), a.cfg.Notify.Interval, logger),
		}
		for _, r := range runners {
			wg.Add(1)
			go func(r *worker.Runner) {
				defer wg.Done()
				r.Run(ctx)
			}(r)
		}

		if spec := a.cfg.Notify.PurgeSchedule; spec != "" {
			loc, err := a.cfg.Substitution.Location()
			if err != nil {
				return err
			}
			sched := worker.NewScheduler(loc, logger)
			if err := sched.Add("outbox-purge", spec, worker.PurgeOutbox(a.dispatcher(), a.cfg.Notify.Retention)); err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				sched.Run(ctx)
			}()
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("servidor HTTP iniciado", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("sinal de encerramento recebido")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("servidor HTTP falhou: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownIn)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("falha no encerramento do servidor", zap.Error(err))
	}

	stop()
	wg.Wait()
	logger.Info("servidor encerrado")
	return nil
}
