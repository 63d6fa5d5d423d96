package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/idx2root/internal/convert"
	"github.com/KyungWonPark/idx2root/internal/idx"
	idxio "github.com/KyungWonPark/idx2root/internal/io"
	"github.com/magneticio/go-common/logging"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of idx2root
const Version = "v0.1.0"

// Exit codes
const (
	exitFailure = 1
	exitUsage   = 2
)

// UsageError is returned when the command line does not name exactly one
// input file.
type UsageError struct {
	Args int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("expected 1 input file, got %d", e.Args)
}

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "idx2root input_idx",
	Short: "Convert MNIST idx files to ROOT trees",
	Long: `Convert a MNIST idx file (labels or images) to a table with one row per record.
The output is written next to the input with the format suffix appended:
  idx2root train-labels.idx1-ubyte              -> train-labels.idx1-ubyte.root
  idx2root -f npy train-images.idx3-ubyte       -> train-images.idx3-ubyte.npy
  `,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{Args: len(args)}
		}
		return nil
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromConfig()
		if err != nil {
			return err
		}
		opts.Report = cmd.OutOrStdout()

		_, err = convert.Run(args[0], opts)
		return err
	},
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Usage: idx2root input_idx")
		return exitUsage
	}

	var ferr *idx.InvalidFormatError
	var terr *idx.TruncatedInputError
	var oerr *convert.FileOpenError
	switch {
	case errors.As(err, &oerr):
		logging.Error("Error: File could not be opened: %v\n", oerr.Err)
	case errors.As(err, &ferr):
		logging.Error("Error: Not a valid MNIST idx file: %v\n", ferr)
	case errors.As(err, &terr):
		logging.Error("Error: Input ended early: %v\n", terr)
	default:
		logging.Error("Error: %v\n", err)
	}
	return exitFailure
}

func init() {
	logging.Init(os.Stdout, os.Stderr)

	defaults := convert.DefaultOptions()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.idx2root/config.yaml)")
	flags.BoolVarP(&logging.Verbose, "verbose", "v", false, "Verbose output")

	rootCmd.Flags().StringP("format", "f", string(defaults.Format), "output format: root, npy, csv or bin")
	rootCmd.Flags().String("suffix", "", "suffix appended to the input path (default is the format suffix)")
	rootCmd.Flags().String("tree", defaults.Table.Name, "name of the output table")
	rootCmd.Flags().String("title", defaults.Table.Title, "title of the output table (root only)")
	rootCmd.Flags().Int("progress", defaults.Progress, "print progress every N images, 0 disables")

	for _, key := range []string{"format", "suffix", "tree", "title", "progress"} {
		viper.BindPFlag(key, rootCmd.Flags().Lookup(key))
	}

	viper.SetEnvPrefix("idx2root")
	viper.BindEnv("config")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	viper.AutomaticEnv()
	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config %s can not be read: %w", cfgFile, err)
		}
		logging.Info("Using config file: %v\n", viper.ConfigFileUsed())
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		logging.Error("Can not find home Directory: %v\n", err)
		return nil
	}
	viper.AddConfigPath(filepath.Join(home, ".idx2root"))
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err == nil {
		logging.Info("Using config file: %v\n", viper.ConfigFileUsed())
	}
	return nil
}

func optionsFromConfig() (convert.Options, error) {
	format, err := idxio.ParseFormat(viper.GetString("format"))
	if err != nil {
		return convert.Options{}, err
	}

	return convert.Options{
		Format: format,
		Suffix: viper.GetString("suffix"),
		Table: idxio.Options{
			Name:  viper.GetString("tree"),
			Title: viper.GetString("title"),
		},
		Progress: viper.GetInt("progress"),
	}, nil
}
