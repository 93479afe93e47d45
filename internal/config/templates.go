package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config format: %s", format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
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

const tomlTemplate = `units = ["text", "face", "image", "quote", "audio", "special", "rich", "flags"]
trace_decode = false
trace_encode = false
max_forward_depth = 4

[fetch]
rate_per_second = 5.0
burst = 5
timeout = "10s"

[fetch.redis]
addr = ""
prefix = "msgchain:fetch"
ttl = "10m"
`

const yamlTemplate = `units: [text, face, image, quote, audio, special, rich, flags]
trace_decode: false
trace_encode: false
max_forward_depth: 4
fetch:
  rate_per_second: 5.0
  burst: 5
  timeout: 10s
  redis:
    addr: ""
    prefix: msgchain:fetch
    ttl: 10m
`
