package main

import (
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/leeforge/imgresize/media/queue"
)

// barObserver draws batch progress on stderr.
type barObserver struct {
	bar *pb.ProgressBar
}

func newBarObserver(total int) *barObserver {
	bar := pb.New(total)
	bar.SetWriter(os.Stderr)
	bar.Set("prefix", "resizing ")
	bar.Start()
	return &barObserver{bar: bar}
}

func (o *barObserver) OnProgress(p queue.Progress) {
	o.bar.SetCurrent(int64(p.Current))
	if p.Failed > 0 {
		o.bar.Set("suffix", fmt.Sprintf(" errors: %d", p.Failed))
	}
}

func (o *barObserver) OnComplete(queue.Outcome) {
	o.bar.Finish()
}
