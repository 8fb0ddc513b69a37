package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AbQaadir/RemoteWebCam/pkg/utils"
	"github.com/fsnotify/fsnotify"
)

// DirWatcher publishes every JPEG file dropped into a directory. It serves
// camera processes that write captures to disk instead of pushing over the
// network. Files are only read, never deleted or rewritten.
type DirWatcher struct {
	dir       string
	publisher Publisher
	events    chan<- any
	watcher   *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewDirWatcher creates a new directory watch source
func NewDirWatcher(dir string, publisher Publisher, events chan<- any) *DirWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &DirWatcher{
		dir:       dir,
		publisher: publisher,
		events:    events,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins watching the directory
func (d *DirWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return err
	}
	d.watcher = watcher

	slog.Info("Starting directory watch source", "dir", d.dir)

	d.wg.Add(1)
	go d.watchLoop()

	emit(d.events, SourceStartedEvent{Source: d.Name()})
	return nil
}

// Stop stops watching and waits for the loop to finish
func (d *DirWatcher) Stop() {
	d.cancel()
	if d.watcher != nil {
		utils.CloseWithLog(d.watcher)
	}
	d.wg.Wait()
	emit(d.events, SourceStoppedEvent{Source: d.Name(), Reason: "stopped"})
	slog.Info("Directory watch source stopped", "dir", d.dir)
}

// Name 소스 이름 반환 (Source 인터페이스 구현)
func (d *DirWatcher) Name() string {
	return "dirwatch"
}

// watchLoop publishes each new or rewritten JPEG file
func (d *DirWatcher) watchLoop() {
	defer d.wg.Done()

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if isJPEGFile(event.Name) {
					d.publishFile(event.Name)
				}
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Directory watch error", "dir", d.dir, "err", err)
			emit(d.events, SourceErrorEvent{Source: d.Name(), Err: err})
		case <-d.ctx.Done():
			return
		}
	}
}

// publishFile reads one file and publishes it. A read failure skips the
// frame; no error crosses into the broadcaster.
func (d *DirWatcher) publishFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read frame file, skipping", "file", path, "err", err)
		emit(d.events, SourceErrorEvent{Source: d.Name(), Err: err})
		return
	}
	if len(data) == 0 {
		// 쓰기 도중 발생한 이벤트일 수 있음, 다음 Write 이벤트에서 처리됨
		return
	}

	d.publisher.Publish(data)
	slog.Debug("Published frame from file", "file", path, "size", len(data))
}

func isJPEGFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
