// Example: replace the driver logger and tag log lines with a request id
package main

import (
	"bytes"
	"context"
	"log"
	"strings"

	"github.com/mkelastic/goelastic"
)

func main() {
	buf := &bytes.Buffer{}
	buf2 := &bytes.Buffer{}

	mylog := goelastic.GetLogger()
	mylog.SetOutput(buf)
	mylog.Error("default logger writes errors")
	mylog.Info("default logger hides info")
	_ = mylog.SetLogLevel("info")
	mylog.Info("default logger shows info after the switch")

	testlog := goelastic.CreateDefaultLogger()
	_ = testlog.SetLogLevel("debug")
	testlog.SetOutput(buf2)
	goelastic.SetLogger(testlog)

	ctx := context.WithValue(context.Background(), goelastic.ESRequestIDKey, "req-42")
	goelastic.GetLogger().WithContext(ctx).Debug("tagged debug line")
	goelastic.GetLogger().Info("password=hunter2hunter2 is masked")
	log.Print("Expect all true values:")

	// verify logger switch and level switch
	strbuf := buf.String()
	log.Printf("%t:%t:%t", strings.Contains(strbuf, "default logger writes errors"),
		!strings.Contains(strbuf, "default logger hides info"),
		strings.Contains(strbuf, "default logger shows info after the switch"))

	// verify context fields and secret masking
	strbuf2 := buf2.String()
	log.Printf("%t:%t:%t", strings.Contains(strbuf2, "req-42"),
		strings.Contains(strbuf2, "tagged debug line"),
		!strings.Contains(strbuf2, "hunter2hunter2"))
}
