package unattended

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one unattended installation: where the session lives,
// what to start in it, and which prompts to answer.
type Config struct {
	Session       SessionConfig     `yaml:"session"`
	Installer     string            `yaml:"installer"`
	Policy        Policy            `yaml:"policy"`
	PollInterval  time.Duration     `yaml:"poll_interval"`
	AwaitInterval time.Duration     `yaml:"await_interval"`
	Timeout       time.Duration     `yaml:"timeout,omitempty"`
	Vars          map[string]string `yaml:"vars,omitempty"`
	Rules         Table             `yaml:"rules"`
	Setup         []SetupStep       `yaml:"setup,omitempty"`
}

// SessionConfig names the tmux session and its transcript.
type SessionConfig struct {
	Name   string `yaml:"name"`
	Log    string `yaml:"log"`
	Shell  string `yaml:"shell,omitempty"`
	Tmux   string `yaml:"tmux,omitempty"`
	Socket string `yaml:"socket,omitempty"`
}

// SetupStep is one environment provisioning command, run with bash -c before
// the session is created.
type SetupStep struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`

	// SkipIfExists skips the step when this path already exists.
	SkipIfExists string `yaml:"skip_if_exists,omitempty"`
}

// NodeIDVar is the variable holding the operator-supplied node identifier in
// the default table.
const NodeIDVar = "node_id"

// DefaultConfig returns the configuration for installing the Nexus CLI.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Name:  "nexus",
			Log:   "/tmp/nexus_screen.log",
			Shell: defaultShell,
		},
		Installer:     "curl https://cli.nexus.xyz/ | sh",
		Policy:        ConsumeOnce,
		PollInterval:  defaultPollInterval,
		AwaitInterval: defaultAwaitInterval,
		Rules: Table{
			{Match: "1) Proceed with standard installation", Response: "1"},
			{Match: "Do you agree to the Nexus Beta Terms of Use", Response: "Y"},
			{Match: "[2] Enter '2'", Response: "2"},
			{Match: "Please enter your node ID:", Response: "${" + NodeIDVar + "}"},
			{Match: "Do you want to use the existing user account? (y/n)", Response: "y", Repeat: true},
		},
		Setup: defaultSetup(),
	}
}

func defaultSetup() []SetupStep {
	const fstabLine = "/swapfile swap swap defaults 0 0"
	const protoc = "protoc-25.6-linux-x86_64.zip"
	return []SetupStep{
		{
			Name:         "swap file",
			Run:          "sudo fallocate -l 10G /swapfile && sudo chmod 600 /swapfile && sudo mkswap /swapfile && sudo swapon /swapfile",
			SkipIfExists: "/swapfile",
		},
		{
			Name: "swap fstab entry",
			Run:  fmt.Sprintf("grep -qxF '%[1]s' /etc/fstab 2>/dev/null || echo '%[1]s' | sudo tee -a /etc/fstab; sudo swapon --show", fstabLine),
		},
		{
			Name: "apt upgrade",
			Run: "sudo env DEBIAN_FRONTEND=noninteractive apt-get update && " +
				"sudo env DEBIAN_FRONTEND=noninteractive apt-get -y " +
				"-o Dpkg::Options::='--force-confdef' -o Dpkg::Options::='--force-confold' upgrade",
		},
		{
			Name: "build packages",
			Run:  "sudo apt-get install -y build-essential pkg-config libssl-dev git-all curl tmux unzip protobuf-compiler",
		},
		{
			Name: "rust toolchain",
			Run:  "curl --proto =https --tlsv1.2 -sSf https://sh.rustup.rs | sh -s -- -y && . \"$HOME/.cargo/env\" && cargo --version",
		},
		{
			Name: "riscv target",
			Run:  ". \"$HOME/.cargo/env\" && rustup target add riscv32i-unknown-none-elf",
		},
		{
			Name: "protoc",
			Run: "wget -q https://github.com/protocolbuffers/protobuf/releases/download/v25.6/" + protoc +
				" && unzip -o " + protoc + " && sudo mv bin/protoc /usr/local/bin",
		},
	}
}

// LoadConfig reads a YAML configuration file. Fields the file leaves out keep
// their DefaultConfig values; a rules or setup list in the file replaces the
// default list entirely.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks everything that can be checked before touching tmux.
func (c Config) Validate() error {
	if err := validSessionName(c.Session.Name); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Session.Log == "" {
		return errors.New("config: session.log is required")
	}
	if c.PollInterval < 0 || c.AwaitInterval < 0 || c.Timeout < 0 {
		return errors.New("config: intervals and timeout must not be negative")
	}
	for i, s := range c.Setup {
		if s.Run == "" {
			return fmt.Errorf("config: setup step %d (%s): empty run", i, s.Name)
		}
	}
	return c.Rules.Validate(c.Policy)
}

// Table returns the rules with every ${name} placeholder substituted from
// Vars.
func (c Config) Table() (Table, error) {
	return c.Rules.Expand(c.Vars)
}

// MissingVars lists placeholders the rules reference that Vars has no value
// for.
func (c Config) MissingVars() []string {
	var missing []string
	for _, name := range c.Rules.Placeholders() {
		if _, ok := c.Vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// EngineOptions translates the configuration into engine options.
func (c Config) EngineOptions() []Option {
	opts := []Option{WithPolicy(c.Policy), WithTimeout(c.Timeout)}
	if c.PollInterval > 0 {
		opts = append(opts, WithPollInterval(c.PollInterval))
	}
	if c.AwaitInterval > 0 {
		opts = append(opts, WithAwaitInterval(c.AwaitInterval))
	}
	return opts
}

// SessionOptions translates the configuration into session options.
func (c Config) SessionOptions() []SessionOption {
	var opts []SessionOption
	if c.Session.Shell != "" {
		opts = append(opts, WithShell(c.Session.Shell))
	}
	if c.Session.Tmux != "" {
		opts = append(opts, WithTmuxPath(c.Session.Tmux))
	}
	if c.Session.Socket != "" {
		opts = append(opts, WithSocket(c.Session.Socket))
	}
	return opts
}
