package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/config"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/handler"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/schedule"
	"github.com/rushteam/schemekit/service"
	"github.com/rushteam/schemekit/text"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "schemekit",
		Short:         "scheme similarity and hybrid recommendation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/schemekit.yaml", "path to config yaml")

	rootCmd.AddCommand(buildCmd(&configPath), serveCmd(&configPath), recommendCmd(&configPath))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "schemekit:", err)
		os.Exit(1)
	}
}

func buildCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "rebuild the similarity matrix from the catalog snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.rebuild.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("matrix build finished",
				zap.String("version", res.Version),
				zap.Int("dimension", res.Dimension),
				zap.Bool("saved", res.Saved),
				zap.Duration("elapsed", res.Elapsed),
			)
			return nil
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	if _, err := a.matrix.Get(ctx); err != nil {
		a.logger.Warn("similarity matrix not loaded, content recommendations disabled until rebuild", zap.Error(err))
	}

	sched := schedule.NewCronScheduler(a.logger)
	for _, j := range []struct {
		job  schedule.Job
		spec string
	}{
		{a.rebuild, cfg.Matrix.RebuildCron},
		{a.reload, cfg.Matrix.ReloadCron},
	} {
		if j.spec == "" {
			continue
		}
		if err := sched.AddJob(j.job, j.spec); err != nil {
			return err
		}
	}
	if jobs := sched.Entries(); len(jobs) > 0 {
		sched.Start(ctx)
		defer sched.Stop()
		a.logger.Info("scheduler started", zap.Strings("jobs", jobs))
	}
	go reloadOnHangup(ctx, a)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		Schemes:      handler.NewSchemeHandler(a.recommender, a.catalog, a.logger),
		Hybrid:       handler.NewHybridHandler(a.hybrid, a.logger),
		Interactions: handler.NewInteractionHandler(a.events, a.logger),
		Health: func() gin.H {
			return gin.H{
				"matrix_version": a.matrix.Version(),
				"active_schemes": a.catalog.Index().ActiveCount(),
			}
		},
		Logger: a.logger,
	})
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// reloadOnHangup 收到 SIGHUP 时刷新 catalog 并重新加载矩阵。
func reloadOnHangup(ctx context.Context, a *app) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := a.reload.Run(ctx); err != nil {
				a.logger.Warn("reload on SIGHUP failed", zap.Error(err))
				continue
			}
			a.logger.Info("reloaded on SIGHUP", zap.String("matrix_version", a.matrix.Version()))
		}
	}
}

func recommendCmd(configPath *string) *cobra.Command {
	var (
		schemeID    int64
		topN        int
		userID      int64
		homeState   int64
		feedback    string
		profile     map[string]string
		ordering    string
		page, limit int
		usePipeline bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "print similar schemes (--scheme) or hybrid recommendations for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var out any
			switch {
			case schemeID > 0:
				recs, err := a.recommender.Recommend(ctx, schemeID, topN)
				if err != nil && !core.IsNotFound(err) {
					return err
				}
				out = recs
			case usePipeline:
				out, err = runPipeline(ctx, a, userID, homeState, feedback, profile)
				if err != nil {
					return err
				}
			default:
				out, err = a.hybrid.Recommend(ctx, service.HybridRequest{
					UserID:     userID,
					StateID:    homeState,
					Feedback:   feedback,
					Attributes: profile,
					Ordering:   ordering,
					TopN:       topN,
					Page:       page,
					Limit:      limit,
				})
				if err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&schemeID, "scheme", 0, "scheme id for similar-scheme recommendations")
	f.IntVar(&topN, "top-n", 0, "number of similar schemes / collaborative candidates")
	f.Int64Var(&userID, "user", 0, "user id (0 = anonymous)")
	f.Int64Var(&homeState, "home-state", 0, "user's state of residence")
	f.StringVar(&feedback, "feedback", "", "latest free-text feedback")
	f.StringToStringVar(&profile, "profile", nil, "profile attributes, e.g. community=sc,occupation=farmer")
	f.StringVar(&ordering, "ordering", "", "title, -title, introduced_on, -introduced_on")
	f.IntVar(&page, "page", 1, "page number")
	f.IntVar(&limit, "limit", 0, "page size")
	f.BoolVar(&usePipeline, "pipeline", false, "run the YAML pipeline named in the config instead of the hybrid service")
	return cmd
}

// runPipeline 执行配置文件中的 pipeline，返回候选 scheme（含分数与召回来源）。
func runPipeline(ctx context.Context, a *app, userID, homeState int64, feedback string, profile map[string]string) (any, error) {
	if a.cfg.Pipeline == "" {
		return nil, fmt.Errorf("no pipeline configured")
	}
	pcfg, err := pipeline.Load(a.cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	if err := config.ValidatePipelineConfig(pcfg); err != nil {
		return nil, err
	}
	p, err := pcfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, err
	}

	user := core.NewUserProfile(userID)
	user.StateID = homeState
	user.Feedback = feedback
	for k, v := range profile {
		user.SetAttribute(k, v)
	}
	if feedback != "" {
		user.Keywords = text.StopwordExtractor{MaxKeywords: a.cfg.Recommend.MaxKeywords}.Extract(feedback)
	}
	items, err := p.Run(ctx, &core.RecommendContext{UserID: userID, User: user}, nil)
	if err != nil {
		return nil, err
	}

	type row struct {
		ID     int64   `json:"id"`
		Title  string  `json:"title"`
		Score  float64 `json:"score"`
		Source string  `json:"source,omitempty"`
	}
	out := make([]row, 0, len(items))
	for _, it := range items {
		r := row{ID: it.ID, Score: it.Score}
		if it.Scheme != nil {
			r.Title = it.Scheme.Title
		}
		if lbl, ok := it.Labels[recall.LabelRecallSource]; ok {
			r.Source = lbl.Value
		}
		out = append(out, r)
	}
	return out, nil
}
