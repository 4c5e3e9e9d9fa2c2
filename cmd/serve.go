package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/internal/scheduler"
	"github.com/sells-group/osint-cli/internal/session"
)

var (
	servePort        int
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analyst API server and standing-order scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions := session.NewManager(env.Engine, cfg.Session.MaxTurns)
		mux := newServeMux(env, sessions)

		if !serveNoScheduler {
			orders, err := scheduler.LoadOrders(cfg.Scheduler.OrdersFile)
			if err != nil {
				return err
			}
			sched := scheduler.New(env.Engine, orders,
				time.Duration(cfg.Scheduler.IntervalMins)*time.Minute,
				time.Duration(cfg.Scheduler.BaseDelaySecs)*time.Second,
				time.Duration(cfg.Scheduler.StrideSecs)*time.Second,
			)
			sched.Start(ctx)
			defer sched.Stop()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(env *appEnv, sessions *session.Manager) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		conversation := append(sessions.Turns(req.SessionID),
			model.Turn{Role: model.RoleUser, Content: req.Message})

		state, err := env.Engine.Run(r.Context(), conversation)
		if err != nil {
			zap.L().Error("chat run failed",
				zap.String("session", req.SessionID),
				zap.Error(err),
			)
			http.Error(w, `{"error":"briefing run failed"}`, http.StatusInternalServerError)
			return
		}

		reply := state.Conversation[len(state.Conversation)-1]
		sessions.Extend(r.Context(), req.SessionID,
			model.Turn{Role: model.RoleUser, Content: req.Message}, reply)

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":  req.SessionID,
			"reply":       reply.Content,
			"topic":       state.FinalTopic,
			"briefing_id": state.BriefingID,
			"rejected":    state.Gate == model.GateRejected,
		})
	})

	mux.HandleFunc("POST /api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if env.Memory == nil {
			http.Error(w, `{"error":"document memory is not configured"}`, http.StatusServiceUnavailable)
			return
		}

		var req struct {
			Source string `json:"source"`
			Text   string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Text == "" {
			http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
			return
		}
		if req.Source == "" {
			req.Source = "upload"
		}

		chunks, err := env.Memory.Ingest(r.Context(), req.Source, req.Text)
		if err != nil {
			zap.L().Error("document ingest failed", zap.String("source", req.Source), zap.Error(err))
			http.Error(w, `{"error":"ingest failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"source": req.Source, "chunks": chunks})
	})

	mux.HandleFunc("GET /api/reports", func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}

		briefings, err := env.Store.ListBriefings(r.Context(), limit)
		if err != nil {
			zap.L().Error("list briefings failed", zap.Error(err))
			http.Error(w, `{"error":"store unavailable"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": briefings})
	})

	mux.HandleFunc("GET /api/entities", func(w http.ResponseWriter, r *http.Request) {
		mentions, err := env.Store.ListEntityMentions(r.Context())
		if err != nil {
			zap.L().Error("list entities failed", zap.Error(err))
			http.Error(w, `{"error":"store unavailable"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entities": mentions})
	})

	mux.HandleFunc("POST /api/forecast", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Topic == "" {
			http.Error(w, `{"error":"topic is required"}`, http.StatusBadRequest)
			return
		}

		forecast, err := env.Engine.Forecast(r.Context(), req.Topic)
		if err != nil {
			zap.L().Error("forecast failed", zap.String("topic", req.Topic), zap.Error(err))
			http.Error(w, `{"error":"forecast failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, forecast)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "disable the standing-order scheduler")
	rootCmd.AddCommand(serveCmd)
}
