package scankit

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a drop directory and validates every newly arrived
// archive, emitting the aggregate results on a channel. Polling remote
// storage and downloading archives is the host application's concern;
// the watcher covers the local hand-off directory.
type Watcher struct {
	validator *Validator
	fw        *fsnotify.Watcher
	results   chan *AggregateResult
	errors    chan error
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher starts watching dir. Only files whose format is recognized
// trigger a validation; everything else is ignored with a debug log.
func NewWatcher(v *Validator, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		validator: v,
		fw:        fw,
		results:   make(chan *AggregateResult),
		errors:    make(chan error),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// run forwards filesystem events into validations until Close
func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	log := w.logger()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			// Create covers both fresh writes and files moved into the
			// directory after being staged elsewhere.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if DetectFormat(event.Name) == FormatUnknown {
				log.Debug("ignoring non-archive file", "path", event.Name)
				continue
			}
			res, err := w.validator.Validate(ctx, event.Name, "")
			if err != nil {
				select {
				case w.errors <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Results delivers one AggregateResult per validated archive
func (w *Watcher) Results() <-chan *AggregateResult {
	return w.results
}

// Errors delivers watcher and environmental validation errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) logger() *slog.Logger {
	if w.validator != nil && w.validator.Logger != nil {
		return w.validator.Logger
	}
	return slog.Default()
}
