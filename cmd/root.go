package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"smallsh/core"
	"smallsh/core/config"
	"smallsh/core/logger"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config, using built-in defaults: did you run init?")
		return config.Default(), nil
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands:
// it runs the interactive shell. Extra arguments are ignored.
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small interactive command shell",
	Long: `An interactive command shell with input/output redirection,
background execution with completion notification, and a SIGTSTP driven
foreground-only mode.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		recorder := logger.NewNopLogRecorder()
		if configuration.CommandLog != "" {
			fd, err := configuration.OpenCommandLog()
			if err != nil {
				return err
			}
			defer fd.Close()
			recorder = logger.NewJsonLinesLogRecorder(fd)
		}

		shell, err := core.NewShell(configuration, recorder.NewSession())
		if err != nil {
			return err
		}
		defer shell.Close()

		shell.Run()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
