package config

import (
	"github.com/allape/vmclipd/logger"
	"github.com/pelletier/go-toml/v2"
	"os"
)

var log = logger.New("[config]")

const DefaultConfigPath = "vmclipd.toml"

type PortDriverType string

const (
	PortDevPort PortDriverType = "devport"
)

type ClipboardDriverType string

const (
	ClipboardShell      ClipboardDriverType = "shell"
	ClipboardSerialPort ClipboardDriverType = "serialport"
	ClipboardDummy      ClipboardDriverType = "dummy"
)

type Port struct {
	Type PortDriverType `toml:"type"`
	Dev  string         `toml:"dev"`
	// Addr is the 4-byte-wide doorbell port. The hypervisor listens on
	// 0x1854, there is no reason to change this outside of testing.
	Addr int64 `toml:"addr"`
}

type Bridge struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
	// MaxTransfer caps a single transfer in either direction. Pulls above
	// the cap are refused, pushes are truncated below it.
	MaxTransfer int64 `toml:"max_transfer"`
}

type Clipboard struct {
	Type ClipboardDriverType `toml:"type"`

	// ReadCommand and WriteCommand are used by the shell driver.
	ReadCommand  Command `toml:"read_command"`
	WriteCommand Command `toml:"write_command"`

	// Src is the device path for the serialport driver.
	Src string    `toml:"src"`
	Ext TagString `toml:"ext"`
}

type Config struct {
	Port      Port      `toml:"port"`
	Bridge    Bridge    `toml:"bridge"`
	Clipboard Clipboard `toml:"clipboard"`
}

func GetConfig() (Config, error) {
	configFile := DefaultConfigPath
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	log.Println("reading config file:", configFile)

	config := Config{
		Port: Port{
			Type: PortDevPort,
			Dev:  "/dev/port",
			Addr: 0x1854,
		},
		Bridge: Bridge{
			PollIntervalMS: 50,
			MaxTransfer:    4 * 1024 * 1024,
		},
		Clipboard: Clipboard{
			Type:         ClipboardShell,
			ReadCommand:  Command{"xclip", "-out", "-selection", "clipboard"},
			WriteCommand: Command{"xclip", "-in", "-selection", "clipboard"},
		},
	}

	_, err := os.Stat(configFile)
	if err != nil {
		log.Println("config file not found, using defaults")
		return config, nil
	}

	configData, err := os.ReadFile(configFile)
	if err != nil {
		return config, err
	}

	err = toml.Unmarshal(configData, &config)
	if err != nil {
		return config, err
	}

	log.Println("use config:", config)

	return config, nil
}
