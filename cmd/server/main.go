package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/CK6170/Torquecal-go/internal/server"
)

func main() {
	var (
		app   = kingpin.New("server", "HTTP and WebSocket front end for transducer calibration.")
		addr  = app.Flag("addr", "http listen address").Default("127.0.0.1:8080").String()
		web   = app.Flag("web", "path to web root (index.html)").Default("./web").String()
		level = app.Flag("log", "Log level (debug|info|warn|error).").Default("info").Enum("debug", "info", "warn", "error")
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	lvl, _ := logrus.ParseLevel(*level)
	logger.SetLevel(lvl)

	// Only serve a frontend that exists.
	webRoot := *web
	if st, err := os.Stat(webRoot); err != nil || !st.IsDir() {
		logger.Warnf("web root %s not found; serving the API only", webRoot)
		webRoot = ""
	}

	s := server.New(logrus.NewEntry(logger), webRoot)
	logger.Infof("Serving on http://%s", *addr)
	if err := http.ListenAndServe(*addr, s.Handler()); err != nil {
		logger.Fatal(err)
	}
}
