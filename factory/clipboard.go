package factory

import (
	"fmt"

	"github.com/allape/vmclipd/bridge/clipboard"
	"github.com/allape/vmclipd/bridge/clipboard/dummy"
	"github.com/allape/vmclipd/bridge/clipboard/serialport"
	"github.com/allape/vmclipd/bridge/clipboard/shell"
	"github.com/allape/vmclipd/config"
)

func ClipboardFromConfig(conf config.Config) (cd clipboard.Driver, err error) {
	switch conf.Clipboard.Type {
	case config.ClipboardShell:
		cd = shell.NewDriver(conf.Clipboard.ReadCommand, conf.Clipboard.WriteCommand)
	case config.ClipboardSerialPort:
		l.Warn().Println("serial clipboard driver is write-only, requests from the host push empty content")
		baud, err := conf.Clipboard.Ext.GetInt("baud", 9600)
		if err != nil {
			return nil, err
		}
		cd = serialport.New(conf.Clipboard.Src, baud)
	case config.ClipboardDummy:
		l.Warn().Println("clipboard driver is dummy, content is kept in memory only")
		cd = dummy.NewDriver()
	default:
		return nil, fmt.Errorf("unknown clipboard driver: %s", conf.Clipboard.Type)
	}

	err = cd.Open()
	if err != nil {
		return nil, err
	}

	return cd, err
}
