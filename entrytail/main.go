package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"

	"golang.org/x/term"

	"stocktaker.com/sync/realtime"
)

const EntryTailVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Entry stream tail.

Connects to a live entry stream and prints the local collection as it
changes. Useful for watching a session's mutation traffic without the
web frontend.

Usage:
    entrytail tail --api_url=<api_url> [--jwt=<jwt>] [--kind=<kind>]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --api_url=<api_url>  Api base url, e.g. https://stock.example.com/api/v1
    --jwt=<jwt>          Session token. Prompted for when omitted.
    --kind=<kind>        Record kind namespace [default: entry].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], EntryTailVersion)
	if err != nil {
		panic(err)
	}

	if tail_, _ := opts.Bool("tail"); tail_ {
		tail(opts)
	}
}

func tail(opts docopt.Opts) {
	apiUrl, _ := opts.String("--api_url")
	kind, _ := opts.String("--kind")

	jwt, _ := opts.String("--jwt")
	if jwt == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Session token: ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			Err.Fatalf("could not read session token = %s", err)
		}
		jwt = strings.TrimSpace(string(tokenBytes))
	}

	settings := realtime.DefaultEngineSettings()
	settings.ApiUrl = apiUrl
	settings.SessionToken = jwt
	settings.RouterSettings.RecordKind = kind
	settings.IsViewLive = func() bool {
		return true
	}
	settings.IsBootstrapping = func() bool {
		return false
	}
	if jwt != "" {
		settings.HasQualifyingPrincipal = realtime.PrincipalGate(jwt)
	}

	var engine *realtime.Engine
	settings.RequestRender = func() {
		printCollection(engine)
	}

	engine, err := realtime.NewEngine(settings)
	if err != nil {
		Err.Fatalf("bad api url = %s", err)
	}

	engine.Ensure()
	Out.Printf("tailing %s (interrupt to stop)", apiUrl)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	engine.TeardownOnUnload()
}

func printCollection(engine *realtime.Engine) {
	if engine == nil {
		return
	}
	records := engine.Collection().Records()
	Out.Printf("-- %d records --", len(records))
	for _, record := range records {
		fresh := " "
		if engine.Highlights().IsActive(record.Identity) {
			fresh = "*"
		}
		Out.Printf("%s %s qty=%v type=%v", fresh, record.Identity, record.Fields["qty"], record.Fields["type"])
	}
}
