package main

import (
	"fmt"
	"net/url"

	"github.com/jonathan/job-board/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// loadConfig builds the effective configuration and applies the --host and --port
// flags when they were given explicitly.
func loadConfig(cmd *cobra.Command, path, host string, port int) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	checkConfigPath string
	checkHost       string
	checkPort       int
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate and print the effective configuration",
	Long:  `Load the configuration file and environment, validate every setting the server needs, and print the result as YAML with secrets redacted.`,
	RunE:  runCheckConfig,
}

func init() {
	checkConfigCmd.Flags().StringVar(&checkConfigPath, "config", "", "Path to a YAML config file")
	checkConfigCmd.Flags().StringVar(&checkHost, "host", "0.0.0.0", "Host to listen on")
	checkConfigCmd.Flags().IntVar(&checkPort, "port", 8000, "Port to listen on")
	rootCmd.AddCommand(checkConfigCmd)
}

func runCheckConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, checkConfigPath, checkHost, checkPort)
	if err != nil {
		return err
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	printable := *cfg
	printable.DatabaseURL = redactURL(cfg.DatabaseURL)
	out, err := yaml.Marshal(&printable)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, string(out))
	fmt.Fprintf(w, "access_token_ttl: %s\n", jwtCfg.AccessTTL())
	fmt.Fprintf(w, "refresh_token_ttl: %s\n", jwtCfg.RefreshTTL())
	fmt.Fprintf(w, "bcrypt_cost: %d\n", pwCfg.BcryptCost)
	fmt.Fprintln(w, "Configuration OK")
	return nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
