package monitoring

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"restodash/logging"
)

// Watcher 监控数据文件变化并触发重载
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration

	fsw  *fsnotify.Watcher
	stop chan struct{}
}

// NewWatcher 创建文件监控器。监听文件所在目录而不是文件本身，
// 因为编辑器和导出工具通常以改名方式替换文件。
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		fsw:      fsw,
		stop:     make(chan struct{}),
	}, nil
}

// Start 启动监控循环
func (w *Watcher) Start() {
	logging.S().Infof("Watching dataset file: %s", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		logging.S().Info("Dataset watcher stopped")
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}

			// 去抖：写入往往是一串事件，只在安静后触发一次
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				logging.S().Infof("Dataset file changed: %s", event.Name)
				w.onChange()
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.S().Warnf("Watcher error: %v", err)

		case <-w.stop:
			return
		}
	}
}

// Stop 停止监控
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.fsw.Close()
}

// matches 只关心目标文件的写入、创建和改名落地
func (w *Watcher) matches(event fsnotify.Event) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil || abs != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
