// Package setup registers the screening MCP server with a desktop MCP
// client by editing the client's mcpServers configuration file.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const (
	// DefaultServerName is the key used under mcpServers.
	DefaultServerName = "screening-engine"
	// BinaryName is the MCP server executable.
	BinaryName = "mcp-server"

	dataDirEnv = "SCREENING_DATA_DIR"
)

// ClientConfig represents the MCP client configuration file structure.
// Keys other than mcpServers are preserved.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry represents a single MCP server configuration.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for registration.
type Options struct {
	ConfigPath string // Client config file; empty uses DefaultClientConfigPath
	ServerName string // Key under mcpServers; empty uses DefaultServerName
	BinaryPath string // Path to the server binary; empty searches for it
	DataDir    string // Exported as SCREENING_DATA_DIR when set
}

// DefaultClientConfigPath returns the per-OS location of the desktop
// client's config file.
func DefaultClientConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		// Try XDG config first, then fallback
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig loads the client configuration. A missing file yields
// an empty configuration.
func LoadClientConfig(configPath string) (*ClientConfig, error) {
	config := &ClientConfig{
		MCPServers: make(map[string]ServerEntry),
		extra:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(config.extra, "mcpServers")
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]ServerEntry)
	}

	return config, nil
}

// SaveClientConfig writes the configuration, creating the directory.
func SaveClientConfig(configPath string, config *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(config.extra)+1)
	for k, v := range config.extra {
		out[k] = v
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (o Options) resolve() (Options, error) {
	if o.ServerName == "" {
		o.ServerName = DefaultServerName
	}
	if o.ConfigPath == "" {
		path, err := DefaultClientConfigPath()
		if err != nil {
			return o, err
		}
		o.ConfigPath = path
	}
	return o, nil
}

// Register adds or replaces the screening server entry and returns it.
func Register(opts Options) (*ServerEntry, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	config, err := LoadClientConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath, err = FindBinary(BinaryName)
		if err != nil {
			return nil, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := ServerEntry{Command: binaryPath}
	if opts.DataDir != "" {
		entry.Env = map[string]string{dataDirEnv: opts.DataDir}
	}
	config.MCPServers[opts.ServerName] = entry

	if err := SaveClientConfig(opts.ConfigPath, config); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Unregister removes the entry. It reports whether one was present.
func Unregister(opts Options) (bool, error) {
	opts, err := opts.resolve()
	if err != nil {
		return false, err
	}

	config, err := LoadClientConfig(opts.ConfigPath)
	if err != nil {
		return false, err
	}
	if _, ok := config.MCPServers[opts.ServerName]; !ok {
		return false, nil
	}
	delete(config.MCPServers, opts.ServerName)

	return true, SaveClientConfig(opts.ConfigPath, config)
}

// FindBinary looks for the named executable on PATH and in common
// install locations.
func FindBinary(binaryName string) (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + binaryName,
		"./build/" + binaryName,
		filepath.Join(home, ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, err := filepath.Abs(loc)
			if err != nil {
				return loc, nil
			}
			return absPath, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", binaryName)
}

// Status represents the current registration.
type Status struct {
	ConfigPath string   `json:"config_path"`
	Registered bool     `json:"registered"`
	ServerPath string   `json:"server_path,omitempty"`
	DataDir    string   `json:"data_dir,omitempty"`
	Issues     []string `json:"issues,omitempty"`
}

// Inspect reports whether the server is registered and whether the
// registered binary and data directory exist.
func Inspect(opts Options) (*Status, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: opts.ConfigPath}

	config, err := LoadClientConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	entry, ok := config.MCPServers[opts.ServerName]
	if !ok {
		status.Issues = append(status.Issues, fmt.Sprintf("%s is not registered", opts.ServerName))
		return status, nil
	}
	status.Registered = true
	status.ServerPath = entry.Command
	status.DataDir = entry.Env[dataDirEnv]

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found: %s", entry.Command))
	} else if runtime.GOOS != "windows" && info.Mode()&0111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary is not executable: %s", entry.Command))
	}

	if status.DataDir != "" {
		if _, err := os.Stat(status.DataDir); os.IsNotExist(err) {
			status.Issues = append(status.Issues, fmt.Sprintf("Data directory will be created on first run: %s", status.DataDir))
		}
	}

	return status, nil
}
