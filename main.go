package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/dispatch"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/product"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/provider"
	configx "github.com/tanpawarit/Chative-Product-Intent-Agent/pkg/config"
	logx "github.com/tanpawarit/Chative-Product-Intent-Agent/pkg/logger"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" split_words:"true" default:":8000"`
	ToolServerAddr  string        `envconfig:"TOOL_SERVER_ADDR" split_words:"true" default:"127.0.0.1:8801"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Query     string   `json:"query"`
	Response  string   `json:"response"`
	ToolCalls []string `json:"tool_calls"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if err := product.Seed(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("seeding product catalog")
	}

	toolServer, err := provider.NewServer(store)
	if err != nil {
		log.Fatal().Err(err).Msg("building tool server")
	}

	// Bind the tool server before the agent comes up so the client never
	// races the listener.
	toolListener, err := net.Listen("tcp", appCfg.ToolServerAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", appCfg.ToolServerAddr).Msg("binding tool server")
	}
	toolHTTP := &http.Server{Handler: toolServer.Handler()}
	go func() {
		log.Info().Str("addr", toolListener.Addr().String()).Msg("tool server listening")
		if err := toolHTTP.Serve(toolListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("tool server stopped")
		}
	}()

	clientCfg := configx.MustNew[provider.ClientConfig]("TOOL_PROVIDER")
	if clientCfg.URL == "" {
		clientCfg.URL = "http://" + toolListener.Addr().String()
	}
	toolClient, err := provider.NewClient(*clientCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("building tool client")
	}

	dispatchCfg := configx.MustNew[dispatch.Config]("AGENT")
	orchestrator, err := dispatch.New(toolClient, *dispatchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("building orchestrator")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/agent/query", handleAgentQuery(orchestrator))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	agentHTTP := &http.Server{Addr: appCfg.HTTPAddr, Handler: mux}
	go func() {
		log.Info().Str("addr", appCfg.HTTPAddr).Msg("agent api listening")
		if err := agentHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("agent api stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := agentHTTP.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("agent api shutdown")
	}
	if err := toolHTTP.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tool server shutdown")
	}
}

// openStore connects to Postgres when a DSN is configured and falls back
// to the in-memory store otherwise.
func openStore(ctx context.Context) contractx.ProductStore {
	dbCfg := configx.MustNew[product.Config]("PRODUCT_DB")
	if dbCfg.DSN == "" {
		log.Info().Msg("no database configured, using in-memory product store")
		return product.NewMemStore()
	}

	store, err := product.NewStore(*dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting product store")
	}
	if err := product.Migrate(ctx, store.DB()); err != nil {
		log.Fatal().Err(err).Msg("migrating product schema")
	}
	return store
}

func handleAgentQuery(orchestrator *dispatch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		resp := orchestrator.HandleQuery(r.Context(), req.Query)
		out := queryResponse{
			Query:     resp.Query,
			Response:  resp.Message,
			ToolCalls: resp.ToolCalls,
		}
		if out.ToolCalls == nil {
			out.ToolCalls = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Error().Err(err).Msg("encoding query response")
		}
	}
}
