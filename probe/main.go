package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/allape/vmclipd/config"
	"github.com/allape/vmclipd/factory"
	"github.com/allape/vmclipd/logger"
)

// Issues raw command words to the hypervisor doorbell and prints each
// status word, for protocol bring-up. Example session:
//   4        poll for pending clipboard events
//   0x4      same, in hex

var log = logger.New("[probe]")

func main() {
	conf, err := config.GetConfig()
	if err != nil {
		log.Fatalln("get config:", err)
	}

	g, err := factory.GateFromConfig(conf)
	if err != nil {
		log.Fatalln("gate from config:", err)
	}
	defer func() {
		_ = g.Close()
	}()

	reader := bufio.NewReader(os.Stdin)
	for {
		text, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalln("fail to read from stdin:", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		word, err := ParseWord(text)
		if err != nil {
			log.Println("invalid word:", text)
			continue
		}

		log.Printf("> %#x", word)

		err = g.Issue(word)
		if err != nil {
			log.Fatalln("issue error:", err)
		}

		status, err := g.Status()
		if err != nil {
			log.Fatalln("status error:", err)
		}

		log.Printf("< %#x", status)
	}
}

// ParseWord accepts a 32-bit word as decimal or 0x-prefixed hex.
func ParseWord(text string) (uint32, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")

	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		text = text[2:]
		base = 16
	}

	word, err := strconv.ParseUint(text, base, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}

	return uint32(word), nil
}
