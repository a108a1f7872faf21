// Command seqkit filters and reshapes lines of text with a lazy pipeline.
//
//	seqkit --grep ERROR --distinct --number app.log
//	cat words.txt | seqkit --upper --sort --pool 3
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
