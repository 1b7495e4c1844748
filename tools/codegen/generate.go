package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/AltairaLabs/codestream/pkg/config"
	"github.com/AltairaLabs/codestream/runtime/codegen"
	"github.com/AltairaLabs/codestream/runtime/events"
	"github.com/AltairaLabs/codestream/runtime/logger"
	"github.com/AltairaLabs/codestream/runtime/metrics/prometheus"
	"github.com/AltairaLabs/codestream/runtime/telemetry"
)

// Flag name constants to avoid duplication
const (
	flagOut         = "out"
	flagMetricsAddr = "metrics-addr"
	flagStack       = "stack"
	flagModel       = "model"
)

// errSessionCancelled is returned when the session ended by cancellation.
var errSessionCancelled = errors.New("code generation cancelled")

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one code generation session",
	Long: `Run one code generation session and write each variant's final output
to <out>/variant-<n>.html. Press Ctrl-C to cancel.

Examples:
  codegen generate --image screenshot.png
  codegen generate --video recording.mp4 --stack react_tailwind
  codegen generate --update --history out/variant-0.html --history instructions.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveGenerateOptions(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.LoadClientConfig(viper.GetString(flagConfig))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed(flagVerbose) {
			if err := logger.Configure(cfg.Logging.LoggerSpec()); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runGenerate(ctx, opts, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.String("image", "", "Screenshot to generate code from")
	f.String("video", "", "Screen recording to generate code from")
	f.Bool("update", false, "Update previously generated code instead of creating new code")
	f.StringSlice("history", nil, "Files forming the update history, oldest first (repeatable)")
	f.Bool("imported", false, "Mark the history as imported from existing code")
	f.String(flagStack, "", "Output stack (html_tailwind, react_tailwind, vue_tailwind, ...)")
	f.String(flagModel, "", "Code generation model")
	f.String("theme", "", "Editor theme (espresso, cobalt)")
	f.Bool("image-generation", false, "Let the backend generate placeholder images")
	f.Bool("accept-terms", false, "Accept the hosted service's terms of service")
	f.StringP(flagOut, "o", "out", "Output directory")
	f.String(flagMetricsAddr, "", "Serve Prometheus metrics on this address while the session runs")

	// Bind flags to viper
	_ = viper.BindPFlag(flagOut, f.Lookup(flagOut))
	_ = viper.BindPFlag(flagMetricsAddr, f.Lookup(flagMetricsAddr))
	_ = viper.BindPFlag(flagStack, f.Lookup(flagStack))
	_ = viper.BindPFlag(flagModel, f.Lookup(flagModel))

	// Provider keys come from the environment only.
	_ = viper.BindEnv("openai-api-key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai-base-url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("anthropic-api-key", "ANTHROPIC_API_KEY")
}

func resolveGenerateOptions(cmd *cobra.Command) (*generateOptions, error) {
	f := cmd.Flags()
	opts := &generateOptions{
		stack:         viper.GetString(flagStack),
		model:         viper.GetString(flagModel),
		outDir:        viper.GetString(flagOut),
		metricsAddr:   viper.GetString(flagMetricsAddr),
		openAIKey:     viper.GetString("openai-api-key"),
		openAIBaseURL: viper.GetString("openai-base-url"),
		anthropicKey:  viper.GetString("anthropic-api-key"),
	}

	var err error
	if opts.image, err = f.GetString("image"); err != nil {
		return nil, err
	}
	if opts.video, err = f.GetString("video"); err != nil {
		return nil, err
	}
	if opts.update, err = f.GetBool("update"); err != nil {
		return nil, err
	}
	if opts.history, err = f.GetStringSlice("history"); err != nil {
		return nil, err
	}
	if opts.imported, err = f.GetBool("imported"); err != nil {
		return nil, err
	}
	if opts.theme, err = f.GetString("theme"); err != nil {
		return nil, err
	}
	if opts.imageGeneration, err = f.GetBool("image-generation"); err != nil {
		return nil, err
	}
	if opts.acceptTerms, err = f.GetBool("accept-terms"); err != nil {
		return nil, err
	}
	return opts, nil
}

// runGenerate runs one session to completion. The metrics exporter, when
// configured, serves alongside it and stops when the session ends.
func runGenerate(ctx context.Context, opts *generateOptions, cfg *config.ClientConfig, out io.Writer) error {
	req, in, err := buildRequest(opts, cfg)
	if err != nil {
		return err
	}

	printer := newTerminalPrinter(out)
	output := newVariantOutput(opts.outDir)

	bus := events.NewEventBus()
	defer bus.Close()
	bus.SubscribeAll(prometheus.NewMetricsListener().Listener())

	if cfg.Tracing.Enabled {
		shutdown, err := setupTracing(ctx, cfg, bus)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	metricsAddr := opts.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	if metricsAddr != "" {
		exporter := prometheus.NewExporter(metricsAddr)
		g.Go(func() error {
			return exporter.Serve(gctx)
		})
		printer.Info("Serving metrics on " + metricsAddr)
	}

	var sess *codegen.Session
	g.Go(func() error {
		defer cancelRun()

		ctrl := codegen.NewController(cfg.ControllerConfig(),
			codegen.WithNotifier(printer),
			codegen.WithEventBus(bus),
		)
		if in != nil {
			printer.Info(fmt.Sprintf("Sending %s (%d bytes) to %s", in.MIMEType, len(in.Data), ctrl.Endpoint()))
		}

		var err error
		sess, err = ctrl.Start(gctx, req, sessionCallbacks(printer, output))
		if err != nil {
			return err
		}
		<-sess.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return sessionResult(sess, printer, output)
}

func sessionCallbacks(printer *terminalPrinter, output *variantOutput) codegen.Callbacks {
	return codegen.Callbacks{
		OnChunk: output.Chunk,
		OnStatus: func(value string, variant int) {
			printer.Status(variant, value)
		},
		OnFinalOutput: func(value string, variant int) {
			path, err := output.Final(value, variant)
			if err != nil {
				printer.Error(err.Error())
				return
			}
			printer.Status(variant, fmt.Sprintf("wrote %s (%d bytes)", path, len(value)))
		},
		OnComplete: func() {
			printer.Success("Code generation complete")
		},
		OnDiagnostic: func(err error) {
			logger.Warn("Session diagnostic", "error", err)
		},
	}
}

// sessionResult maps the terminal outcome onto the command's error.
func sessionResult(sess *codegen.Session, printer *terminalPrinter, output *variantOutput) error {
	if sess.Outcome() == codegen.OutcomeCompleted {
		return nil
	}

	paths, err := output.Partial()
	for _, p := range paths {
		printer.Info("Partial output saved to " + p)
	}
	if err != nil {
		return err
	}

	if sess.Outcome() == codegen.OutcomeCancelled {
		return errSessionCancelled
	}
	return sess.Err()
}

// setupTracing installs an OTLP tracer provider and the handshake
// propagators and subscribes the span listener to bus.
func setupTracing(ctx context.Context, cfg *config.ClientConfig, bus *events.EventBus) (func(), error) {
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	telemetry.SetupPropagation()

	listener := telemetry.NewOTelEventListener(telemetry.Tracer(tp), telemetry.WithParentContext(ctx))
	bus.SubscribeAll(listener.OnEvent)

	return func() {
		// Deliver queued events before the spans are flushed.
		bus.Close()
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}, nil
}
