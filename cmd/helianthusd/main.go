/*
 * MIT License
 *
 * Copyright (c) 2026 Helianthus Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command helianthusd hosts the RPC server core as a standalone process:
// it loads configuration via rpcconfig, wires the default interceptor
// chain and Prometheus exposition, binds the reactor and serves until
// signaled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/metricshttp"
	"github.com/helianthus-go/rpc/registry"
	"github.com/helianthus-go/rpc/rpcconfig"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpcmetrics"
	"github.com/helianthus-go/rpc/rpcserver"
	"github.com/helianthus-go/rpc/transport"
)

// Exit codes: 0 clean stop, 1 initialization failure, 2 bad configuration.
const (
	exitClean      = 0
	exitInitFailed = 1
	exitConfigBad  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string

	root := &cobra.Command{
		Use:   "helianthusd",
		Short: "Helianthus RPC server",
		Long:  "helianthusd hosts the Helianthus RPC core: transport, registry dispatch and /metrics exposition.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML/JSON/TOML config file")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	exitCode := exitClean
	root.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = serve(configPath)
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInitFailed
	}
	return exitCode
}

func serve(configPath string) int {
	cfg, err := rpcconfig.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "helianthusd: configuration error:", err)
		return exitConfigBad
	}

	log := rpclog.New(os.Stdout, rpclog.InfoLevel)

	var mtr *rpcmetrics.Registry
	var metricsSrv *metricshttp.Server
	if cfg.EnableMetrics {
		mtr = rpcmetrics.NewRegistry()
		metricsSrv = metricshttp.New(mtr, fmt.Sprintf(":%d", cfg.ExporterPort))
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Error("metrics server stopped", rpclog.Fields{"error": err.Error()})
			}
		}()
	}

	chain := interceptor.NewChain(log)
	chain.Add(interceptor.NewLoggingInterceptor(log, true, true, true))
	var hist *rpcmetrics.LatencyHistogram
	if mtr != nil {
		hist = mtr.Histogram()
	}
	chain.Add(interceptor.NewPerformanceInterceptor(hist))

	reg := registry.New()

	srv := rpcserver.New(rpcserver.Config{
		Config: transport.Config{
			MaxFrameBytes: cfg.MaxFrameBytes,
		},
		MaxConcurrentCalls: cfg.MaxConcurrentCalls,
	}, log, chain, mtr)

	if err := reg.MountAll(srv); err != nil {
		fmt.Fprintln(os.Stderr, "helianthusd: failed to mount services:", err)
		return exitInitFailed
	}

	if err := srv.Bind(cfg.BindAddress); err != nil {
		fmt.Fprintln(os.Stderr, "helianthusd: failed to bind:", err)
		return exitInitFailed
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	log.Info("helianthusd listening", rpclog.Fields{"address": srv.Addr(), "metrics_enabled": cfg.EnableMetrics})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("shutting down", rpclog.Fields{})
	case err := <-serveErr:
		if err != nil {
			log.Error("server accept loop failed", rpclog.Fields{"error": err.Error()})
			return exitInitFailed
		}
	}

	_ = srv.Shutdown()
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}
	return exitClean
}
