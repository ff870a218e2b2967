package env

// ClientConfig is pullconf-agent's process configuration, assembled
// entirely from environment variables, grounded on
// original_source/client/src/configuration.rs.
type ClientConfig struct {
	Server    string
	APIKey    string
	CADir     string
	LogFormat string
}

// LoadClientConfig reads and validates every PULLCONF_* variable
// pullconf-agent consumes. PULLCONF_SERVER and PULLCONF_API_KEY are
// required; PULLCONF_CA_DIR is optional (system trust store is used when
// absent).
func LoadClientConfig() (*ClientConfig, error) {
	server, err := RequireString("PULLCONF_SERVER")
	if err != nil {
		return nil, err
	}
	apiKey, err := RequireString("PULLCONF_API_KEY")
	if err != nil {
		return nil, err
	}
	caDir := ""
	if dir, ok := lookupOptionalDir("PULLCONF_CA_DIR"); ok {
		caDir = dir
	}

	return &ClientConfig{
		Server:    server,
		APIKey:    apiKey,
		CADir:     caDir,
		LogFormat: ParseString("PULLCONF_LOG_FORMAT", "logfmt"),
	}, nil
}

func lookupOptionalDir(variable string) (string, bool) {
	dir, err := ParsePath(Directory, variable, "")
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}
