package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/config"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/script"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/ws"
)

var (
	configPath string
	addr       string
)

func main() {
	cmd := &cobra.Command{
		Use:   "hanoi-server",
		Short: "Serve Towers of Hanoi puzzle rooms over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SetAddr(addr)
			}
			return serve(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a .toml or .yaml config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := cfg.Logger()

	lib, err := script.NewLibrary(cfg.ScriptDir, logger)
	if err != nil {
		return err
	}
	if cfg.ScriptDir != "" {
		w, err := lib.Watch()
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("script watcher stopped", "err", err)
			}
		}()
	}

	hub := ws.NewHub(cfg.Origins,
		ws.WithLogger(logger),
		ws.WithDefaultDisks(cfg.Disks),
		ws.WithPace(cfg.AutoSolvePace()),
		ws.WithScripts(lib),
	)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/solve", solveHandler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cors(cfg.Origins, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("server listening", "addr", cfg.Addr, "disks", cfg.Disks, "scripts", lib.Names())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type solveResponse struct {
	Disks int         `json:"disks"`
	Moves []game.Move `json:"moves"`
}

// solveHandler answers GET /api/solve?disks=N with the optimal move list.
func solveHandler(w http.ResponseWriter, r *http.Request) {
	n := game.DefaultDisks
	if v := r.URL.Query().Get("disks"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil {
			http.Error(w, fmt.Sprintf("disks: %q is not a number", v), http.StatusBadRequest)
			return
		}
	}
	if err := game.ValidateDiskCount(n); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	moves, err := game.Solve(n, game.SourcePeg, game.TargetPeg, game.MiddlePeg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(solveResponse{Disks: n, Moves: moves}); err != nil {
		slog.Default().Warn("encode solve response", "err", err)
	}
}

func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
