/*
Example monitoring a recorded traffic stream.  Per frame vehicle detections
and plate readings are replayed from a JSON lines file through the tracking
engine, plate records are written to CSV and optionally SQLite, and an
annotated video can be produced when the source video is supplied.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
	"gorm.io/gorm"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/api"
	"github.com/swdee/go-trafficwatch/config"
	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
	"github.com/swdee/go-trafficwatch/record"
	"github.com/swdee/go-trafficwatch/render"
	"github.com/swdee/go-trafficwatch/repository"
	"github.com/swdee/go-trafficwatch/source"
)

var (
	configFile string
	v          = config.New()

	// vehicleClasses are the classes the vehicle detector reports, persons
	// come from a separate detector for rider analysis
	vehicleClasses = []detect.Class{detect.Car, detect.Motorcycle, detect.Bus, detect.Truck}
)

func main() {

	rootCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Traffic monitor - vehicle tracking, speed and violation detection",
		Long: `Replays recorded vehicle detections and license plate readings through
the tracking engine, estimating vehicle speeds, flagging violations and
recording each plate seen.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format, console or json")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(criminalCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and creates the logger
func setup() (*config.Config, zerolog.Logger, error) {

	cfg, err := config.Load(v, configFile)

	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log, err := config.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, log, nil
}

// streamFlags are the input and output files of a monitoring run
type streamFlags struct {
	replay string
	labels string
	video  string
	output string
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.replay, "replay", "r", "", "JSON lines replay of detections and plate readings")
	cmd.Flags().StringVarP(&f.labels, "labels", "l", "", "Model labels file for replays using numeric class ids")
	cmd.Flags().StringVarP(&f.video, "video", "i", "", "Source video matching the replay, used for annotation")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Annotated video output file, requires --video")
	_ = cmd.MarkFlagRequired("replay")
}

func runCmd() *cobra.Command {

	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a replay file",
		RunE: func(cmd *cobra.Command, args []string) error {

			cfg, log, err := setup()

			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m, err := newMonitor(ctx, cfg, log, flags)

			if err != nil {
				return err
			}
			defer m.Close()

			return m.Run(ctx)
		},
	}

	flags.register(cmd)
	return cmd
}

func serveCmd() *cobra.Command {

	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Process a replay file and serve the live state over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {

			cfg, log, err := setup()

			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m, err := newMonitor(ctx, cfg, log, flags)

			if err != nil {
				return err
			}
			defer m.Close()

			m.state = api.NewState(m.runID)

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           api.NewRouter(api.NewHandler(m.state, m.ring, log)),
				ReadHeaderTimeout: 5 * time.Second,
			}

			srvErr := make(chan error, 1)

			go func() {
				log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					srvErr <- err
				}
				close(srvErr)
			}()

			if err := m.Run(ctx); err != nil {
				return err
			}

			log.Info().Msg("replay finished, serving final state until interrupted")

			select {
			case <-ctx.Done():
			case err := <-srvErr:
				if err != nil {
					return fmt.Errorf("http server error: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		},
	}

	flags.register(cmd)
	return cmd
}

func criminalCmd() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "criminal",
		Short: "Check or flag criminal vehicle plates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check [plate...]",
		Short: "Check plates against the criminal CSV and records database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			cfg, log, err := setup()

			if err != nil {
				return err
			}

			set, db := loadCriminal(cmd.Context(), cfg, log)

			if db != nil {
				defer repository.Close(db)
			}

			for _, p := range args {
				fmt.Printf("%-12s %v\n", plate.Normalize(p), set.Contains(p))
			}

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add plate [reason]",
		Short: "Flag a plate in the criminal records database",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {

			cfg, _, err := setup()

			if err != nil {
				return err
			}

			if cfg.Repository.DSN == "" {
				return errors.New("repository.dsn must be set to add criminal records")
			}

			db, err := repository.Open(cmd.Context(), cfg.Repository.DSN)

			if err != nil {
				return err
			}
			defer repository.Close(db)

			if err := repository.Migrate(db); err != nil {
				return err
			}

			reason := ""
			if len(args) > 1 {
				reason = args[1]
			}

			if err := repository.NewCriminalRepository(db).Add(cmd.Context(), args[0], reason); err != nil {
				return err
			}

			fmt.Printf("flagged %s\n", plate.Normalize(args[0]))
			return nil
		},
	})

	return cmd
}

// loadCriminal builds the flagged plate set from the configured CSV file,
// enriched from the criminal records database when one is reachable.  Either
// source failing leaves the set with what could be loaded
func loadCriminal(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*plate.CriminalSet, *gorm.DB) {

	set := plate.NewCriminalSet()

	if cfg.Plate.CriminalCSV != "" {
		loaded, err := plate.LoadCriminalCSV(cfg.Plate.CriminalCSV)

		if err != nil {
			log.Warn().Err(err).Str("file", cfg.Plate.CriminalCSV).
				Msg("criminal plate list unavailable, continuing without it")
		} else {
			set = loaded
			log.Info().Int("plates", set.Len()).Msg("loaded criminal plate list")
		}
	}

	if cfg.Repository.DSN == "" {
		return set, nil
	}

	db, err := repository.Open(ctx, cfg.Repository.DSN)

	if err != nil {
		log.Warn().Err(err).Str("component", "criminal records").
			Msg("criminal records database unavailable, using plate list only")
		return set, nil
	}

	added, err := repository.NewCriminalRepository(db).Enrich(ctx, set)

	if err != nil {
		log.Warn().Err(err).Str("component", "criminal records").
			Msg("error loading criminal records")
	} else {
		log.Info().Int("plates", added).Msg("loaded criminal records")
	}

	return set, db
}

// monitor wires the replay, engine, record sinks and optional video
// annotation together
type monitor struct {
	log     zerolog.Logger
	runID   uuid.UUID
	replay  *source.Replay
	engine  *trafficwatch.Engine
	emitter *record.Emitter
	ring    *record.Ring
	db      *gorm.DB
	state   *api.State

	video  *gocv.VideoCapture
	writer *gocv.VideoWriter
	font   render.Font
	trail  render.TrailStyle
}

func newMonitor(ctx context.Context, cfg *config.Config, log zerolog.Logger, flags streamFlags) (*monitor, error) {

	m := &monitor{
		log:   log,
		runID: uuid.New(),
		ring:  record.NewRing(cfg.Record.RingSize),
		font:  render.DefaultFont(),
		trail: render.DefaultTrailStyle(),
	}

	m.log = log.With().Str("run_id", m.runID.String()).Logger()

	var err error

	m.replay, err = source.OpenReplay(flags.replay, m.log)

	if err != nil {
		return nil, err
	}

	if flags.labels != "" {
		labels, err := detect.LoadLabels(flags.labels)

		if err != nil {
			m.Close()
			return nil, err
		}

		m.replay.SetLabels(detect.NewLabelMap(labels))
	}

	sinks := []record.Sink{m.ring}

	csvSink, err := record.NewCSVSink(cfg.Record.CSVPath)

	if err != nil {
		m.Close()
		return nil, err
	}

	sinks = append(sinks, csvSink)

	if cfg.Record.SQLitePath != "" {
		sqliteSink, err := record.NewSQLiteSink(cfg.Record.SQLitePath, m.runID)

		if err != nil {
			csvSink.Close()
			m.Close()
			return nil, err
		}

		sinks = append(sinks, sqliteSink)
	}

	m.emitter = record.NewEmitter(m.log, sinks...)

	var criminal *plate.CriminalSet
	criminal, m.db = loadCriminal(ctx, cfg, m.log)

	roi, err := cfg.NewROI()

	if err != nil {
		m.Close()
		return nil, err
	}

	counter, err := cfg.NewCounter()

	if err != nil {
		m.Close()
		return nil, err
	}

	m.engine, err = trafficwatch.NewEngine(cfg.EngineConfig(), trafficwatch.Collaborators{
		Log: m.log,
		Detectors: []trafficwatch.Detector{
			m.replay.ClassDetector("vehicle detector", vehicleClasses...),
			m.replay.ClassDetector("person detector", detect.Person),
		},
		PlateReader: m.replay,
		Riders:      cfg.Riders(),
		Criminal:    criminal,
		Emitter:     m.emitter,
		ROI:         roi,
		Counter:     counter,
	})

	if err != nil {
		m.Close()
		return nil, err
	}

	if flags.video != "" {
		if err := m.openVideo(flags.video, flags.output); err != nil {
			m.Close()
			return nil, err
		}
	} else if flags.output != "" {
		m.Close()
		return nil, errors.New("--output requires --video")
	}

	return m, nil
}

// openVideo opens the source video and, if an output file is given, the
// annotated video writer
func (m *monitor) openVideo(input, output string) error {

	video, err := gocv.VideoCaptureFile(input)

	if err != nil {
		return fmt.Errorf("error opening video %s: %w", input, err)
	}

	m.video = video

	if output == "" {
		return nil
	}

	fps := video.Get(gocv.VideoCaptureFPS)
	width := int(video.Get(gocv.VideoCaptureFrameWidth))
	height := int(video.Get(gocv.VideoCaptureFrameHeight))

	m.writer, err = gocv.VideoWriterFile(output, "mp4v", fps, width, height, true)

	if err != nil {
		return fmt.Errorf("error creating video writer %s: %w", output, err)
	}

	return nil
}

// Run processes the replay until it ends or ctx is cancelled
func (m *monitor) Run(ctx context.Context) error {

	img := gocv.NewMat()
	defer img.Close()

	start := time.Now()

	for {
		frame, err := m.replay.Next(ctx)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		if m.video != nil {
			if ok := m.video.Read(&img); !ok || img.Empty() {
				m.log.Warn().Int64("frame", frame.Number).Msg("source video ended before replay")
				m.video.Close()
				m.video = nil
			} else {
				frame.Image = img
				if frame.Width == 0 {
					frame.Width, frame.Height = img.Cols(), img.Rows()
				}
			}
		}

		res := m.engine.ProcessFrame(ctx, frame)

		if m.state != nil {
			m.state.Update(res, m.engine.Counter())
		}

		if m.writer != nil && m.video != nil {
			render.Tracks(&img, render.Scene{
				Result:  res,
				Trail:   m.engine.Trail(),
				ROI:     m.engine.ROI(),
				Counter: m.engine.Counter(),
			}, m.font, m.trail)

			if err := m.writer.Write(img); err != nil {
				m.log.Error().Err(err).Int64("frame", frame.Number).Msg("error writing video frame")
			}
		}
	}

	ev := m.log.Info().
		Int64("frames", m.engine.FrameCount()).
		Int("records", m.ring.Len()).
		Dur("elapsed", time.Since(start))

	if counter := m.engine.Counter(); counter != nil {
		ev = ev.Int("counted", counter.Total())
	}

	ev.Msg("replay complete")

	return nil
}

// Close releases the replay, sinks, video handles and database connection
func (m *monitor) Close() {

	if m.replay != nil {
		m.replay.Close()
	}

	if m.emitter != nil {
		if err := m.emitter.Close(); err != nil {
			m.log.Error().Err(err).Msg("error closing record sinks")
		}
	}

	if m.writer != nil {
		m.writer.Close()
	}

	if m.video != nil {
		m.video.Close()
	}

	if m.db != nil {
		repository.Close(m.db)
	}
}
