package config

import (
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/settle-sh/settle/pkg/errors"
)

// Example renders a starter configuration in TOML, used by the genconfig
// command.
func Example() ([]byte, error) {
	example := Config{
		AppName:     "beacon",
		BundlePath:  "/home/user/Downloads/beacon-bundle",
		Launcher:    "bin/beacon",
		Privileged:  false,
		DisplayName: "Beacon",
		Comment:     "A Wayland-native beacon viewer",
		Categories:  []string{"Utility", "Network"},
		Environment: map[string]string{
			"MOZ_ENABLE_WAYLAND": "1",
		},
	}

	data, err := gotoml.Marshal(example)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot render example config")
	}
	return data, nil
}
