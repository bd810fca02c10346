package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "targets":
		return targetsTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `addr = "127.0.0.1:6380"
password = ""
read_timeout_ms = 30000

[limits]
max_line_bytes = 65536
max_bulk_bytes = 8388608
max_array_elements = 1048576
max_depth = 32

[tls]
cert_file = ""
key_file = ""
`

const targetsTemplate = `[[targets]]
name = "local"
addr = "127.0.0.1:6380"
auth = ""
`
