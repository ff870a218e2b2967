package env

// ServerConfig is pullconfd's process configuration, assembled entirely
// from environment variables per spec.md's "Deliberately out of scope"
// note on configuration loading.
type ServerConfig struct {
	ListenOn       string
	TLSCertificate string
	TLSPrivateKey  string
	AssetDir       string
	ClientDir      string
	GroupDir       string
	LogFormat      string
}

// LoadServerConfig reads and validates every PULLCONF_* variable pullconfd
// consumes, grounded on original_source/server/src/main.rs.
func LoadServerConfig() (*ServerConfig, error) {
	listenOn, err := ParseSocket("PULLCONF_LISTEN_ON", "127.0.0.1:443")
	if err != nil {
		return nil, err
	}
	cert, err := ParsePath(File, "PULLCONF_TLS_CERTIFICATE", "/etc/pullconfd/tls.crt")
	if err != nil {
		return nil, err
	}
	key, err := ParsePath(File, "PULLCONF_TLS_PRIVATE_KEY", "/etc/pullconfd/tls.key")
	if err != nil {
		return nil, err
	}
	assets, err := ParsePath(Directory, "PULLCONF_ASSET_DIR", "/etc/pullconfd/assets")
	if err != nil {
		return nil, err
	}
	resources, err := ParsePath(Directory, "PULLCONF_RESOURCE_DIR", "/etc/pullconfd/resources")
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		ListenOn:       listenOn,
		TLSCertificate: cert,
		TLSPrivateKey:  key,
		AssetDir:       assets,
		ClientDir:      resources + "/clients",
		GroupDir:       resources + "/groups",
		LogFormat:      ParseString("PULLCONF_LOG_FORMAT", "logfmt"),
	}, nil
}
