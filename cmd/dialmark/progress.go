package main

import (
	"github.com/gosuri/uiprogress"
	"github.com/urfave/cli/v2"
)

// progressBar returns a progress callback with a bar of total steps on the
// error stream, and the function that stops it. Without --progress both
// are no-ops.
func (e *env) progressBar(c *cli.Context, total int) (func(done, total int, name string), func()) {
	if !c.Bool("progress") || total == 0 {
		return func(int, int, string) {}, func() {}
	}

	p := uiprogress.New()
	p.SetOut(e.ui.Err)
	p.Start()

	bar := p.AddBar(total)
	bar.AppendCompleted()
	bar.PrependElapsed()

	return func(int, int, string) { bar.Incr() }, p.Stop
}
