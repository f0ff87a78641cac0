package factory

import (
	"fmt"

	"github.com/allape/gogger"
	"github.com/allape/vmclipd/bridge/port"
	"github.com/allape/vmclipd/bridge/port/devport"
	"github.com/allape/vmclipd/config"
)

var l = gogger.New("factory")

func GateFromConfig(conf config.Config) (g port.Gate, err error) {
	switch conf.Port.Type {
	case config.PortDevPort:
		g = devport.New(conf.Port.Dev, conf.Port.Addr)
	default:
		return nil, fmt.Errorf("unknown port driver: %s", conf.Port.Type)
	}

	err = g.Open()
	if err != nil {
		return nil, err
	}

	return g, err
}
