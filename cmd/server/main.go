/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + LEAVE_* environment)
  2. Initialize zap logger
  3. Open SQLite store
  4. Wire services and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  -config   Optional config file path. Defaults cover development:
            port 8080, db "leave.db", 20 paid / 10 sick days,
            certificate threshold 3 units.
            Use LEAVE_DB_PATH=":memory:" for an in-memory database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "config file path (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		log.Fatal("opening database", zap.Error(err), zap.String("path", cfg.DB.Path))
	}
	defer st.Close()

	// Policy values were validated at load time.
	initialPaid, _ := cfg.Policy.InitialPaid()
	initialSick, _ := cfg.Policy.InitialSick()
	certThreshold, _ := cfg.Policy.CertificateThreshold()

	ledger := &engine.BalanceLedger{Balances: st, Leaves: st}
	handler := &api.Handler{
		Requests: &leave.RequestService{
			Holidays: st,
			Leaves:   st,
			Ledger:   ledger,
			Certs:    st,
			Log:      log,
		},
		Permissions: &leave.PermissionService{
			Permissions: st,
			Log:         log,
		},
		Provision: &leave.ProvisionService{
			Directory:   st,
			Balances:    st,
			InitialPaid: initialPaid,
			InitialSick: initialSick,
		},
		Approvals: &engine.ApprovalStateMachine{
			Leaves:                   st,
			Permissions:              st,
			Ledger:                   ledger,
			SickCertificateThreshold: certThreshold,
		},
		Carryover: &engine.CarryoverEngine{Balances: st, Directory: st},
		Reporter:  &report.BalanceReporter{Directory: st, Balances: st},

		Holidays:        st,
		HolidayWriter:   st,
		Directory:       st,
		LeaveStore:      st,
		PermissionStore: st,
		Balances:        st,
		Log:             log,
	}

	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.DB.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
