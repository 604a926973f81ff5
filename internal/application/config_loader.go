package application

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chamikara/rachana/internal/ports"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader over a YAML file on
// disk, with change notification via filesystem events.
type FileConfigLoader struct {
	path   string
	logger *zap.Logger
}

// NewFileConfigLoader creates a loader for the given file path.
func NewFileConfigLoader(path string, logger *zap.Logger) *FileConfigLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileConfigLoader{path: path, logger: logger}
}

// Load reads and strictly decodes the file into config, which must be a
// struct pointer.
func (l *FileConfigLoader) Load(ctx context.Context, config any) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("failed to decode config (check for typos): %w", err)
	}

	return nil
}

// Watch reloads the file whenever it changes and passes the fresh value
// to callback. The watch covers the parent directory because editors and
// orchestrators typically replace config files atomically by rename,
// which drops a watch placed on the file itself.
func (l *FileConfigLoader) Watch(ctx context.Context, config any, callback func(any)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(l.path)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				fresh, err := l.reload(config)
				if err != nil {
					l.logger.Warn("config reload failed, keeping previous configuration",
						zap.String("path", l.path),
						zap.Error(err))
					continue
				}

				l.logger.Info("configuration reloaded", zap.String("path", l.path))
				callback(fresh)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return stop, nil
}

// reload decodes the file into a fresh copy of the template, so a
// half-written file never corrupts the running config. Seeding from the
// template mirrors the file-over-defaults merge at startup: values the
// changed file leaves out keep the template's settings.
func (l *FileConfigLoader) reload(template any) (any, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	t := reflect.TypeOf(template)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("config template must be a struct pointer, got %T", template)
	}
	freshValue := reflect.New(t.Elem())
	freshValue.Elem().Set(reflect.ValueOf(template).Elem())
	fresh := freshValue.Interface()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(fresh); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return fresh, nil
}
