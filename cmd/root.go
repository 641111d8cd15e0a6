package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/ocrline/internal/config"
	"github.com/andresmejia3/ocrline/internal/engine"
	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/source"
	"github.com/andresmejia3/ocrline/internal/store"
	"github.com/andresmejia3/ocrline/internal/utils"
	"github.com/spf13/cobra"
)

// Options holds the flags shared by the recognition command
type Options struct {
	Engine       string
	Lang         string
	Orientation  bool
	TessdataDir  string
	TesseractBin string
	Verbose      bool
}

var (
	opts Options
	// cfg is the environment configuration loaded before every command
	cfg *config.Config
	// DB is the optional history store shared by subcommands
	DB *store.Store
	// dbURL is the connection string
	dbURL string
)

// newEngine is swapped out in tests.
var newEngine = engine.New

// errReported means the error envelope has already been written.
var errReported = errors.New("error already reported")

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "ocrline <image_path>",
	Short: "Recognize text lines in an image and print them as JSON",
	Long: `ocrline runs an OCR engine on one image and writes the detected text lines
to stdout as a JSON array of {text, confidence, box} objects. On failure a
{"error": "..."} object is written to stderr and the exit status is 1.`,
	Version:       Version, // This enables the --version flag
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A bare invocation must fail with the missing-path envelope,
		// not a .env or DB error, so it touches neither.
		if !cmd.HasParent() && len(args) == 0 {
			cfg = &config.Config{}
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		applyConfig(cmd, cfg)

		if dbURL == "" {
			dbURL = cfg.DatabaseURL
		}
		// History is optional for recognition; subcommands check DB themselves.
		if dbURL == "" {
			return nil
		}
		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), dbURL, cfg.Engine)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeDB()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecognize(cmd, args)
	},
}

// applyConfig merges flags and environment into c: a flag the user set wins,
// otherwise the environment value is copied back into opts.
func applyConfig(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	mergeString := func(name string, flag, env *string) {
		if flags.Changed(name) {
			*env = *flag
		} else {
			*flag = *env
		}
	}
	mergeString("engine", &opts.Engine, &c.Engine)
	mergeString("lang", &opts.Lang, &c.Lang)
	mergeString("tessdata-dir", &opts.TessdataDir, &c.TessdataDir)
	mergeString("tesseract-bin", &opts.TesseractBin, &c.TesseractBin)
	if flags.Changed("orientation") {
		c.Orientation = opts.Orientation
	} else {
		opts.Orientation = c.Orientation
	}
}

func runRecognize(cmd *cobra.Command, args []string) error {
	inv := &ocr.Invoker{
		Config:   cfg.OCR(),
		Resolver: source.NewResolver(cfg.S3()),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	}
	if DB != nil {
		inv.Recorder = DB
	}

	// Missing arguments are reported before the engine is even built.
	if len(args) > 0 {
		eng, err := newEngine(cfg.Engine, engine.Options{TesseractBin: cfg.TesseractBin})
		if err != nil {
			eng = failingEngine{err: err}
		}
		if opts.Verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚙️  Engine: %s (lang %s, orientation %v)\n", cfg.Engine, cfg.Lang, cfg.Orientation)
			eng = &spinningEngine{Engine: eng, w: cmd.ErrOrStderr()}
		}
		inv.Engine = eng
	}

	if code := inv.Main(cmd.Context(), args); code != 0 {
		return errReported
	}
	return nil
}

// closeDB releases the history connection, if any.
func closeDB() {
	if DB != nil {
		// Use Background here because the main context might be cancelled already (due to Ctrl+C)
		// and we still need to send the "Close" command to the DB.
		DB.Close(context.Background())
		DB = nil
	}
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when RunE fails
	closeDB()
	if err != nil {
		if errors.Is(err, errReported) {
			os.Exit(1)
		}
		utils.Die(err)
	}
}

func init() {
	defaults := ocr.DefaultConfig()
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for run history (default: $DATABASE_URL, history disabled if unset)")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Engine, "engine", "e", engine.Tesseract, fmt.Sprintf("OCR engine (%v)", engine.Names()))
	flags.StringVarP(&opts.Lang, "lang", "l", defaults.Lang, "Tesseract language models, joined with '+'")
	flags.BoolVar(&opts.Orientation, "orientation", defaults.Orientation, "Correct text-line orientation before recognition")
	flags.StringVar(&opts.TessdataDir, "tessdata-dir", "", "Directory holding *.traineddata models")
	flags.StringVar(&opts.TesseractBin, "tesseract-bin", "tesseract", "Path to the tesseract binary (tesseract engine)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show progress on stderr")
}
