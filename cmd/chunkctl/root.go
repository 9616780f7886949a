package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshuapare/hyperchunks/chunks"
	"github.com/joshuapare/hyperchunks/chunks/snapshot"
	"github.com/joshuapare/hyperchunks/internal/logger"
)

const (
	envPrefix         = "CHUNKCTL"
	defaultConfigName = ".chunkctl"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary
	log  = logrus.WithField("component", "chunkctl")
)

var (
	// Global flags
	cfgFile         string
	logLevel        string
	logFormat       string
	logDir          string
	verbose         bool
	quiet           bool
	jsonOut         bool
	compressionName string

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "chunkctl",
	Short: "Inspect and edit sparse 4D voxel index snapshots",
	Long: `chunkctl reads and writes snapshot files of a sparse 4D voxel index.
It sets and reads single voxels, fills random data, prints arena statistics,
checks structural invariants and dumps the stored regions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s.yaml)", defaultConfigName))
	pf.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&logDir, "log-dir", "", "Write logs to a dated file in this directory instead of stderr")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVar(&compressionName, "compression", "zstd", "Snapshot compression when writing: none, snappy, zstd")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initConfig layers the config file and CHUNKCTL_* environment variables
// under the command line, then sets up logging.
func initConfig(cmd *cobra.Command) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(defaultConfigName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	if verbose && !cmd.Flags().Changed("log-level") && !v.IsSet("log-level") {
		logLevel = "info"
	}
	closeFn, err := logger.Init(logger.Options{
		Level:  logLevel,
		Format: logFormat,
		LogDir: logDir,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	closeLog = closeFn
	if used := v.ConfigFileUsed(); used != "" {
		log.WithField("path", used).Info("using config file")
	}
	return nil
}

// bindFlags applies viper values to flags the user did not set.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		val := v.Get(f.Name)
		var s string
		switch val.(type) {
		case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32:
			s = fmt.Sprintf("%v", val)
		default:
			b, err := json.Marshal(&val)
			if err != nil {
				bindErr = fmt.Errorf("can't parse flag %s into json with value %v: %w", f.Name, val, err)
				return
			}
			s = string(b)
		}
		if err := cmd.Flags().Set(f.Name, s); err != nil {
			bindErr = fmt.Errorf("invalid value %q for --%s: %w", s, f.Name, err)
		}
	})
	return bindErr
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

func parseCoord(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return uint32(n), nil
}

func parsePoint(args []string) (x, y, z, w uint32, err error) {
	var p [4]uint32
	for i := range p {
		if p[i], err = parseCoord(args[i]); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return p[0], p[1], p[2], p[3], nil
}

func parseBlock(s string) (chunks.BlockID, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid block id %q: %w", s, err)
	}
	return chunks.BlockID(n), nil
}

func openSnapshot(path string) (*chunks.Index, error) {
	printVerbose("Opening snapshot: %s\n", path)
	ix, err := snapshot.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	return ix, nil
}

// openOrCreate loads path, or returns an empty index if it does not exist.
func openOrCreate(path string) (*chunks.Index, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		printVerbose("Creating snapshot: %s\n", path)
		return chunks.New(), nil
	}
	return openSnapshot(path)
}

func saveSnapshot(path string, ix *chunks.Index) error {
	c, err := snapshot.ParseCompression(compressionName)
	if err != nil {
		return err
	}
	if err := snapshot.Save(path, ix, snapshot.Options{Compression: c}); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	printVerbose("Saved snapshot: %s (%s)\n", path, c)
	return nil
}
